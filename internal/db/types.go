package db

const (
	ROUND_STATUS_OPEN        = "open"
	ROUND_STATUS_CALCULATING = "calculating"
	ROUND_STATUS_SETTLED     = "settled"

	REQUEST_STATUS_PENDING   = "pending"
	REQUEST_STATUS_FULFILLED = "fulfilled"
)
