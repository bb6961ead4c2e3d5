package state

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientPayment = errors.New("payment below entry fee")
	ErrRoundNotOpen        = errors.New("round is not open")
	ErrPayoutFailed        = errors.New("payout to winner failed")
	ErrUnknownRequest      = errors.New("unknown or stale randomness request id")
	ErrNoRandomWords       = errors.New("fulfillment carried no random words")
	ErrNoParticipants      = errors.New("no participants at settlement")
)

// EligibilityError reports why a round could not start, with enough payload for
// the caller to understand the failing conjunct. Routine under normal polling.
type EligibilityError struct {
	Pool             uint64
	ParticipantCount int
	Status           string
	IntervalElapsed  bool
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("eligibility not met: status=%s pool=%d participants=%d intervalElapsed=%t",
		e.Status, e.Pool, e.ParticipantCount, e.IntervalElapsed)
}
