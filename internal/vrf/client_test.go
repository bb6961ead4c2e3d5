package vrf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() RequestParams {
	return RequestParams{
		KeyHash:          "0x8af398995b04c28e9951adb9721ef74c74f93e6a478f39e7e0777be13527e7ef",
		SubID:            7,
		Confirmations:    3,
		CallbackGasLimit: 500000,
		NumWords:         1,
		NativePayment:    false,
	}
}

func TestRequestRandomness(t *testing.T) {
	// mock coordinator
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/requests", r.URL.Path)

		var req RandomnessRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testParams().KeyHash, req.KeyHash)
		assert.Equal(t, uint64(7), req.SubID)
		assert.Equal(t, uint32(1), req.NumWords)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RequestResponse{RequestID: "0x00000000000000000000000000000000000000000000000000000000000000aa"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	requestId, err := client.RequestRandomness(context.Background(), testParams())
	assert.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000aa", requestId)
}

func TestRequestRandomnessRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "subscription not funded", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RequestRandomness(context.Background(), testParams())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 402")
}

func TestRequestRandomnessEmptyRequestId(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RequestResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RequestRandomness(context.Background(), testParams())
	assert.Error(t, err)
}
