package state

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/db"
	"github.com/raffnet/raffle-node/internal/payout"
	"github.com/raffnet/raffle-node/internal/vrf"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RandomnessRequester is the outbound half of the coordinator protocol, the
// inbound half arrives through FulfillRandomness.
type RandomnessRequester interface {
	RequestRandomness(ctx context.Context, params vrf.RequestParams) (string, error)
}

// State owns the round ensemble: status, pool, participant list, interval
// anchor, pending request id and recent winner. The five change as one unit,
// every mutation runs under roundMu and is synced to the round DB.
type State struct {
	EventBus *EventBus

	dbm       *db.DatabaseManager
	rail      payout.Rail
	requester RandomnessRequester

	entryFee      uint64
	roundInterval time.Duration

	roundMu sync.RWMutex
	round   RoundState
}

// InitializeState loads the current round from the DB, a fresh DB gets a new
// open round anchored at now. A calculating round resumes waiting for its
// pending request id, there is no timeout path out of calculating.
func InitializeState(dbm *db.DatabaseManager, rail payout.Rail, requester RandomnessRequester) *State {
	roundDb := dbm.GetRoundDB()

	var round db.Round
	if err := roundDb.Order("seq desc").First(&round).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Warnf("Failed to load round: %v", err)
		}
		round = db.Round{
			Seq:            1,
			Status:         db.ROUND_STATUS_OPEN,
			Pool:           0,
			EntryCount:     0,
			LastSettlement: time.Now(),
			UpdatedAt:      time.Now(),
		}
		if err := roundDb.Create(&round).Error; err != nil {
			log.Fatalf("Failed to create genesis round: %v", err)
		}
	}

	var entries []*db.Entry
	if err := roundDb.Where("round_seq = ?", round.Seq).Order("slot asc").Find(&entries).Error; err != nil {
		log.Warnf("Failed to load entries: %v", err)
	}
	participants := make([]common.Address, 0, len(entries))
	for _, entry := range entries {
		participants = append(participants, common.HexToAddress(entry.Participant))
	}

	var recentWinner db.WinnerRecord
	hasWinner := true
	if err := roundDb.Order("round_seq desc").First(&recentWinner).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Warnf("Failed to load recent winner: %v", err)
		}
		hasWinner = false
	}

	log.Infof("State init on startup, round seq %d, status %s, pool %d, participants %d, pending request %q",
		round.Seq, round.Status, round.Pool, len(participants), round.RequestId)

	s := &State{
		EventBus: NewEventBus(),

		dbm:       dbm,
		rail:      rail,
		requester: requester,

		entryFee:      config.AppConfig.EntryFee,
		roundInterval: config.AppConfig.RoundInterval,

		round: RoundState{
			Seq:              round.Seq,
			Status:           round.Status,
			Pool:             round.Pool,
			Participants:     participants,
			LastSettlement:   round.LastSettlement,
			PendingRequestID: round.RequestId,
		},
	}
	if hasWinner {
		s.round.RecentWinner = common.HexToAddress(recentWinner.Participant)
		s.round.HasWinner = true
	}
	return s
}

// EntryFee reads the configured entry fee, immutable for the process lifetime.
func (s *State) EntryFee() uint64 {
	return s.entryFee
}

// RoundInterval reads the configured round interval, immutable for the process lifetime.
func (s *State) RoundInterval() time.Duration {
	return s.roundInterval
}

func (s *State) GetStatus() string {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return s.round.Status
}

func (s *State) GetPool() uint64 {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return s.round.Pool
}

func (s *State) GetRoundSeq() uint64 {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return s.round.Seq
}

func (s *State) GetParticipantCount() int {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return len(s.round.Participants)
}

// GetPlayer returns the participant at the given entry slot of the current round.
func (s *State) GetPlayer(index int) (common.Address, bool) {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	if index < 0 || index >= len(s.round.Participants) {
		return common.Address{}, false
	}
	return s.round.Participants[index], true
}

func (s *State) GetLastSettlement() time.Time {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return s.round.LastSettlement
}

// GetRecentWinner reports false before the first settlement.
func (s *State) GetRecentWinner() (common.Address, bool) {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return s.round.RecentWinner, s.round.HasWinner
}

func (s *State) GetPendingRequestID() string {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	return s.round.PendingRequestID
}
