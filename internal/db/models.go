package db

import (
	"time"
)

// Round model, the current round is the row with the highest seq
type Round struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Seq            uint64    `gorm:"uniqueIndex;not null" json:"seq"`
	Status         string    `gorm:"not null" json:"status"` // "open", "calculating", "settled"
	Pool           uint64    `gorm:"not null" json:"pool"`
	EntryCount     int       `gorm:"not null" json:"entry_count"`
	RequestId      string    `json:"request_id"`
	LastSettlement time.Time `gorm:"not null" json:"last_settlement"` // interval anchor, settlement time of the previous round
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// Entry model (one row per admitted entry, slot = insertion order within the round)
type Entry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoundSeq    uint64    `gorm:"index;not null" json:"round_seq"`
	Participant string    `gorm:"not null" json:"participant"`
	AmountPaid  uint64    `gorm:"not null" json:"amount_paid"`
	Slot        int       `gorm:"not null" json:"slot"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

// RandomnessRequest model (at most one pending row at any time)
type RandomnessRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RequestId     string    `gorm:"uniqueIndex;not null" json:"request_id"`
	RoundSeq      uint64    `gorm:"index;not null" json:"round_seq"`
	KeyHash       string    `json:"key_hash"`
	SubId         uint64    `json:"sub_id"`
	Confirmations uint      `json:"confirmations"`
	GasLimit      uint32    `json:"gas_limit"`
	NumWords      uint32    `json:"num_words"`
	NativePayment bool      `json:"native_payment"`
	Status        string    `gorm:"not null" json:"status"` // "pending", "fulfilled"
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// WinnerRecord model (settlement history, the latest row is the recent winner)
type WinnerRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoundSeq    uint64    `gorm:"uniqueIndex;not null" json:"round_seq"`
	Participant string    `gorm:"not null" json:"participant"`
	Prize       uint64    `gorm:"not null" json:"prize"`
	RequestId   string    `gorm:"not null" json:"request_id"`
	RandomWord  string    `gorm:"not null" json:"random_word"` // decimal string, provider words exceed uint64
	SettledAt   time.Time `gorm:"not null" json:"settled_at"`
}

// Account model (payout ledger)
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"uniqueIndex;not null" json:"address"`
	Balance   uint64    `gorm:"not null" json:"balance"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
