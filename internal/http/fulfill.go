package http

import (
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/state"
	log "github.com/sirupsen/logrus"
)

type FulfillRequest struct {
	RequestID   string   `json:"request_id" binding:"required"`
	RandomWords []string `json:"random_words" binding:"required"`
}

// handleFulfill processes the coordinator fulfillment callback, should validate
// the callback token first
func (hs *HTTPServer) handleFulfill(c *gin.Context) {
	var req FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := verifyCallbackToken(c, req.RequestID); err != nil {
		log.Errorf("Fulfillment callback token verify error: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token error"})
		return
	}

	words := make([]*big.Int, 0, len(req.RandomWords))
	for _, raw := range req.RandomWords {
		// decimal or 0x-prefixed hex
		word, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid random word"})
			return
		}
		words = append(words, word)
	}

	winner, err := hs.state.FulfillRandomness(req.RequestID, words)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrUnknownRequest):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, state.ErrNoRandomWords):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, state.ErrPayoutFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			log.Errorf("Failed to settle round: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "winner": winner.Hex()})
}

// verifyCallbackToken checks the HMAC JWT the coordinator attaches to its
// callback, the request_id claim must match the delivered body. An empty
// configured secret disables verification.
func verifyCallbackToken(c *gin.Context, requestId string) error {
	secret := config.AppConfig.VRFCallbackSecret
	if secret == "" {
		return nil
	}

	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if raw == "" {
		return errors.New("missing callback token")
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKey
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return errors.New("callback token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("callback token claims parsing failed")
	}
	if claims["request_id"] != requestId {
		return errors.New("callback token request id mismatch")
	}
	return nil
}
