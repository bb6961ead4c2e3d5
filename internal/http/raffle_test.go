package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/db"
	"github.com/raffnet/raffle-node/internal/payout"
	"github.com/raffnet/raffle-node/internal/state"
	"github.com/raffnet/raffle-node/internal/vrf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testParticipant = "0x00000000000000000000000000000000000000A1"

type stubRequester struct {
	requestId string
}

func (r *stubRequester) RequestRandomness(_ context.Context, _ vrf.RequestParams) (string, error) {
	return r.requestId, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *state.State) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.DbDir = t.TempDir()
	config.AppConfig.EntryFee = 100
	config.AppConfig.RoundInterval = 20 * time.Millisecond
	config.AppConfig.VRFCallbackSecret = ""

	dbm := db.NewDatabaseManager()
	st := state.InitializeState(dbm, payout.NewLedgerRail(dbm), &stubRequester{requestId: "0xreq1"})

	r := gin.New()
	NewHTTPServer(st).registerRoutes(r)
	return r, st
}

func performJSON(r *gin.Engine, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// drives the round into calculating and returns the pending request id
func startTestRound(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := performJSON(r, http.MethodPost, "/api/v1/raffle/enter", EnterRequest{Participant: testParticipant, Amount: 100}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(30 * time.Millisecond)
	w = performJSON(r, http.MethodPost, "/api/v1/raffle/start", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["request_id"].(string)
}

func TestEnterHandler(t *testing.T) {
	r, st := setupRouter(t)

	w := performJSON(r, http.MethodPost, "/api/v1/raffle/enter", EnterRequest{Participant: testParticipant, Amount: 100}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, st.GetParticipantCount())

	w = performJSON(r, http.MethodPost, "/api/v1/raffle/enter", EnterRequest{Participant: "not-an-address", Amount: 100}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(r, http.MethodPost, "/api/v1/raffle/enter", EnterRequest{Participant: testParticipant, Amount: 50}, nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, 1, st.GetParticipantCount())
}

func TestEnterWhileCalculating(t *testing.T) {
	r, st := setupRouter(t)
	startTestRound(t, r)
	require.Equal(t, db.ROUND_STATUS_CALCULATING, st.GetStatus())

	w := performJSON(r, http.MethodPost, "/api/v1/raffle/enter", EnterRequest{Participant: testParticipant, Amount: 100}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartRoundNotEligible(t *testing.T) {
	r, _ := setupRouter(t)

	w := performJSON(r, http.MethodPost, "/api/v1/raffle/start", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["pool"])
	assert.Equal(t, float64(0), resp["participant_count"])
	assert.Equal(t, db.ROUND_STATUS_OPEN, resp["status"])
}

func TestEligibilityHandler(t *testing.T) {
	r, _ := setupRouter(t)

	w := performJSON(r, http.MethodGet, "/api/v1/raffle/eligibility", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["eligible"])
}

func TestPlayerHandler(t *testing.T) {
	r, _ := setupRouter(t)

	w := performJSON(r, http.MethodPost, "/api/v1/raffle/enter", EnterRequest{Participant: testParticipant, Amount: 100}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSON(r, http.MethodGet, "/api/v1/raffle/players/0", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.HexToAddress(testParticipant).Hex(), resp["participant"])

	w = performJSON(r, http.MethodGet, "/api/v1/raffle/players/5", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(r, http.MethodGet, "/api/v1/raffle/players/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFulfillHandler(t *testing.T) {
	r, st := setupRouter(t)
	requestId := startTestRound(t, r)

	w := performJSON(r, http.MethodPost, "/api/v1/vrf/fulfill", FulfillRequest{RequestID: "0xother", RandomWords: []string{"7"}}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performJSON(r, http.MethodPost, "/api/v1/vrf/fulfill", FulfillRequest{RequestID: requestId, RandomWords: []string{"bogus"}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(r, http.MethodPost, "/api/v1/vrf/fulfill", FulfillRequest{RequestID: requestId, RandomWords: []string{"7"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.HexToAddress(testParticipant).Hex(), resp["winner"])
	assert.Equal(t, db.ROUND_STATUS_OPEN, st.GetStatus())
}

func TestFulfillCallbackAuth(t *testing.T) {
	r, _ := setupRouter(t)
	requestId := startTestRound(t, r)
	config.AppConfig.VRFCallbackSecret = "callback-secret"
	defer func() { config.AppConfig.VRFCallbackSecret = "" }()

	body := FulfillRequest{RequestID: requestId, RandomWords: []string{"7"}}

	w := performJSON(r, http.MethodPost, "/api/v1/vrf/fulfill", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// token for a different request id is rejected
	badToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"request_id": "0xother"}).
		SignedString([]byte("callback-secret"))
	require.NoError(t, err)
	w = performJSON(r, http.MethodPost, "/api/v1/vrf/fulfill", body, map[string]string{"Authorization": "Bearer " + badToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"request_id": requestId}).
		SignedString([]byte("callback-secret"))
	require.NoError(t, err)
	w = performJSON(r, http.MethodPost, "/api/v1/vrf/fulfill", body, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRaffleInfoHandler(t *testing.T) {
	r, _ := setupRouter(t)

	w := performJSON(r, http.MethodGet, "/api/v1/raffle", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(100), resp["entry_fee"])
	assert.Equal(t, db.ROUND_STATUS_OPEN, resp["status"])
	assert.NotContains(t, resp, "recent_winner")
	assert.NotContains(t, resp, "pending_request_id")
}
