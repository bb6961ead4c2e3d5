package vrf

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-errors/errors"
	"github.com/go-resty/resty/v2"
	"github.com/raffnet/raffle-node/internal/config"
	log "github.com/sirupsen/logrus"
)

// Client talks to the external randomness coordinator. A request returns the
// request id synchronously, the random words arrive later on the fulfillment
// webhook. The coordinator guarantees at most one delivery per request id.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{http: client}
}

// RequestRandomness issues one randomness request with the given parameters and
// returns the coordinator assigned request id.
func (c *Client) RequestRandomness(ctx context.Context, params RequestParams) (string, error) {
	var result RequestResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&RandomnessRequest{
			KeyHash:          params.KeyHash,
			SubID:            params.SubID,
			Confirmations:    params.Confirmations,
			CallbackGasLimit: params.CallbackGasLimit,
			NumWords:         params.NumWords,
			NativePayment:    params.NativePayment,
		}).
		SetResult(&result).
		Post("/v1/requests")
	if err != nil {
		return "", errors.Errorf("failed to request randomness: %v", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", errors.Errorf("coordinator rejected randomness request, status %d, body %s", resp.StatusCode(), resp.String())
	}
	if result.RequestID == "" {
		return "", errors.New("coordinator returned empty request id")
	}

	log.Infof("Randomness requested, requestId %s, keyHash %s, subId %d", result.RequestID, params.KeyHash, params.SubID)
	return result.RequestID, nil
}

// ParamsFromConfig builds the per-round request parameters, word count is fixed at 1.
func ParamsFromConfig() RequestParams {
	return RequestParams{
		KeyHash:          config.AppConfig.VRFKeyHash,
		SubID:            config.AppConfig.VRFSubscriptionID,
		Confirmations:    config.AppConfig.VRFConfirmations,
		CallbackGasLimit: config.AppConfig.VRFCallbackGas,
		NumWords:         1,
		NativePayment:    config.AppConfig.VRFNativePayment,
	}
}

func (p RequestParams) String() string {
	return fmt.Sprintf("keyHash=%s subId=%d confirmations=%d gasLimit=%d numWords=%d nativePayment=%t",
		p.KeyHash, p.SubID, p.Confirmations, p.CallbackGasLimit, p.NumWords, p.NativePayment)
}
