package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/raffnet/raffle-node/internal/state"
	log "github.com/sirupsen/logrus"
)

type EnterRequest struct {
	Participant string `json:"participant" binding:"required"`
	Amount      uint64 `json:"amount"`
}

func (hs *HTTPServer) handleEnter(c *gin.Context) {
	var req EnterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !common.IsHexAddress(req.Participant) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant address"})
		return
	}

	slot, err := hs.state.AddEntry(common.HexToAddress(req.Participant), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrInsufficientPayment):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "entry_fee": hs.state.EntryFee()})
		case errors.Is(err, state.ErrRoundNotOpen):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": hs.state.GetStatus()})
		default:
			log.Errorf("Failed to record entry: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "slot": slot, "pool": hs.state.GetPool()})
}

func (hs *HTTPServer) handleEligibility(c *gin.Context) {
	eligible, report := hs.state.CheckEligibility(time.Now())
	c.JSON(http.StatusOK, gin.H{"eligible": eligible, "report": report})
}

func (hs *HTTPServer) handleStartRound(c *gin.Context) {
	requestId, err := hs.state.StartRound(c.Request.Context())
	if err != nil {
		var eligibilityErr *state.EligibilityError
		if errors.As(err, &eligibilityErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":             "Eligibility not met",
				"pool":              eligibilityErr.Pool,
				"participant_count": eligibilityErr.ParticipantCount,
				"status":            eligibilityErr.Status,
				"interval_elapsed":  eligibilityErr.IntervalElapsed,
			})
			return
		}
		log.Errorf("Failed to start round: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestId})
}

func (hs *HTTPServer) handlePlayer(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}
	participant, ok := hs.state.GetPlayer(index)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No participant at index"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": index, "participant": participant.Hex()})
}

func (hs *HTTPServer) handleRaffleInfo(c *gin.Context) {
	info := gin.H{
		"entry_fee":         hs.state.EntryFee(),
		"round_interval":    hs.state.RoundInterval().String(),
		"round_seq":         hs.state.GetRoundSeq(),
		"status":            hs.state.GetStatus(),
		"pool":              hs.state.GetPool(),
		"participant_count": hs.state.GetParticipantCount(),
		"last_settlement":   hs.state.GetLastSettlement(),
	}
	if requestId := hs.state.GetPendingRequestID(); requestId != "" {
		info["pending_request_id"] = requestId
	}
	if winner, ok := hs.state.GetRecentWinner(); ok {
		info["recent_winner"] = winner.Hex()
	}
	c.JSON(http.StatusOK, info)
}
