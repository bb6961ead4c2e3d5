package state

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RoundState is the in-memory view of the current round. Participants keeps
// insertion order and allows duplicates, each slot is a distinct chance to win.
type RoundState struct {
	Seq              uint64
	Status           string
	Pool             uint64
	Participants     []common.Address
	LastSettlement   time.Time
	PendingRequestID string
	RecentWinner     common.Address
	HasWinner        bool
}

// EligibilityReport carries the four conjuncts plus diagnostics. AuxData is a
// reserved payload for downstream automation, currently always empty.
type EligibilityReport struct {
	Eligible         bool      `json:"eligible"`
	IntervalElapsed  bool      `json:"interval_elapsed"`
	RoundOpen        bool      `json:"round_open"`
	PoolFunded       bool      `json:"pool_funded"`
	HasParticipants  bool      `json:"has_participants"`
	Pool             uint64    `json:"pool"`
	ParticipantCount int       `json:"participant_count"`
	Status           string    `json:"status"`
	LastSettlement   time.Time `json:"last_settlement"`
	AuxData          []byte    `json:"aux_data,omitempty"`
}

type EntryRecordedEvent struct {
	RoundSeq    uint64         `json:"round_seq"`
	Participant common.Address `json:"participant"`
	Slot        int            `json:"slot"`
	Pool        uint64         `json:"pool"`
}

type RoundStartedEvent struct {
	RoundSeq  uint64 `json:"round_seq"`
	RequestID string `json:"request_id"`
}

type WinnerSelectedEvent struct {
	RoundSeq  uint64         `json:"round_seq"`
	Winner    common.Address `json:"winner"`
	Prize     uint64         `json:"prize"`
	RequestID string         `json:"request_id"`
}

type PayoutFailedEvent struct {
	RoundSeq uint64         `json:"round_seq"`
	Winner   common.Address `json:"winner"`
	Prize    uint64         `json:"prize"`
	Reason   string         `json:"reason"`
}
