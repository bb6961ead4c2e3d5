package vrf

// RequestParams are fixed per deployment except for the word count, which the
// round machine always sets to 1.
type RequestParams struct {
	KeyHash          string
	SubID            uint64
	Confirmations    uint
	CallbackGasLimit uint32
	NumWords         uint32
	NativePayment    bool
}

type RandomnessRequest struct {
	KeyHash          string `json:"key_hash"`
	SubID            uint64 `json:"sub_id"`
	Confirmations    uint   `json:"confirmations"`
	CallbackGasLimit uint32 `json:"callback_gas_limit"`
	NumWords         uint32 `json:"num_words"`
	NativePayment    bool   `json:"native_payment"`
}

type RequestResponse struct {
	RequestID string `json:"request_id"`
}
