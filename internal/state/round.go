package state

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raffnet/raffle-node/internal/db"
	"github.com/raffnet/raffle-node/internal/vrf"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddEntry admits one entry into the current round and returns its slot.
// Payment is validated before round status, no field changes on failure.
func (s *State) AddEntry(participant common.Address, amountPaid uint64) (int, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	if amountPaid < s.entryFee {
		return 0, ErrInsufficientPayment
	}
	if s.round.Status != db.ROUND_STATUS_OPEN {
		return 0, ErrRoundNotOpen
	}

	slot := len(s.round.Participants)
	newPool := s.round.Pool + amountPaid

	err := s.dbm.GetRoundDB().Transaction(func(tx *gorm.DB) error {
		entry := &db.Entry{
			RoundSeq:    s.round.Seq,
			Participant: participant.Hex(),
			AmountPaid:  amountPaid,
			Slot:        slot,
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Model(&db.Round{}).Where("seq = ?", s.round.Seq).
			Updates(map[string]interface{}{"pool": newPool, "entry_count": slot + 1, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return 0, err
	}

	s.round.Participants = append(s.round.Participants, participant)
	s.round.Pool = newPool

	log.Infof("Entry recorded, round %d, participant %s, slot %d, pool %d", s.round.Seq, participant.Hex(), slot, newPool)
	s.EventBus.Publish(EntryRecorded, EntryRecordedEvent{
		RoundSeq:    s.round.Seq,
		Participant: participant,
		Slot:        slot,
		Pool:        newPool,
	})
	return slot, nil
}

// CheckEligibility is the pure predicate gating a round start, callable by any
// party at any time.
func (s *State) CheckEligibility(now time.Time) (bool, EligibilityReport) {
	s.roundMu.RLock()
	defer s.roundMu.RUnlock()

	report := s.eligibilityLocked(now)
	return report.Eligible, report
}

func (s *State) eligibilityLocked(now time.Time) EligibilityReport {
	report := EligibilityReport{
		IntervalElapsed:  now.Sub(s.round.LastSettlement) >= s.roundInterval,
		RoundOpen:        s.round.Status == db.ROUND_STATUS_OPEN,
		PoolFunded:       s.round.Pool > 0,
		HasParticipants:  len(s.round.Participants) > 0,
		Pool:             s.round.Pool,
		ParticipantCount: len(s.round.Participants),
		Status:           s.round.Status,
		LastSettlement:   s.round.LastSettlement,
	}
	report.Eligible = report.IntervalElapsed && report.RoundOpen && report.PoolFunded && report.HasParticipants
	return report
}

// StartRound re-validates eligibility under the lock, the trigger agent is
// best-effort and may race other callers. On success exactly one randomness
// request is issued and the round moves to calculating, freezing the
// participant list until settlement. A second call fails the same eligibility
// check, so one request is outstanding at most.
func (s *State) StartRound(ctx context.Context) (string, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	report := s.eligibilityLocked(time.Now())
	if !report.Eligible {
		return "", &EligibilityError{
			Pool:             report.Pool,
			ParticipantCount: report.ParticipantCount,
			Status:           report.Status,
			IntervalElapsed:  report.IntervalElapsed,
		}
	}

	params := vrf.ParamsFromConfig()
	requestId, err := s.requester.RequestRandomness(ctx, params)
	if err != nil {
		return "", fmt.Errorf("randomness request failed: %w", err)
	}

	err = s.dbm.GetRoundDB().Transaction(func(tx *gorm.DB) error {
		request := &db.RandomnessRequest{
			RequestId:     requestId,
			RoundSeq:      s.round.Seq,
			KeyHash:       params.KeyHash,
			SubId:         params.SubID,
			Confirmations: params.Confirmations,
			GasLimit:      params.CallbackGasLimit,
			NumWords:      params.NumWords,
			NativePayment: params.NativePayment,
			Status:        db.REQUEST_STATUS_PENDING,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return tx.Model(&db.Round{}).Where("seq = ?", s.round.Seq).
			Updates(map[string]interface{}{"status": db.ROUND_STATUS_CALCULATING, "request_id": requestId, "updated_at": time.Now()}).Error
	})
	if err != nil {
		// round stays open, the issued request no longer matches any pending
		// id and its fulfillment will be rejected
		log.Errorf("Failed to persist round start, round %d, requestId %s: %v", s.round.Seq, requestId, err)
		return "", err
	}

	s.round.Status = db.ROUND_STATUS_CALCULATING
	s.round.PendingRequestID = requestId

	log.Infof("Round started, round %d, requestId %s, pool %d, participants %d",
		s.round.Seq, requestId, s.round.Pool, len(s.round.Participants))
	s.EventBus.Publish(RoundStarted, RoundStartedEvent{
		RoundSeq:  s.round.Seq,
		RequestID: requestId,
	})
	return requestId, nil
}

// FulfillRandomness settles the round: winner = words[0] mod participants. The
// pool transfer runs first and the round flip commits only after it succeeds,
// so a payout failure leaves every observable field untouched and the round in
// calculating. A request id that does not match the pending one is an
// invariant violation and is rejected loudly with no state change.
func (s *State) FulfillRandomness(requestId string, randomWords []*big.Int) (common.Address, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	if s.round.Status != db.ROUND_STATUS_CALCULATING || requestId == "" || requestId != s.round.PendingRequestID {
		log.Errorf("Fulfillment rejected, requestId %s does not match pending %q in status %s",
			requestId, s.round.PendingRequestID, s.round.Status)
		return common.Address{}, ErrUnknownRequest
	}
	if len(randomWords) == 0 || randomWords[0] == nil {
		log.Errorf("Fulfillment rejected, requestId %s carried no random words", requestId)
		return common.Address{}, ErrNoRandomWords
	}
	count := len(s.round.Participants)
	if count == 0 {
		// startRound required at least one participant and calculating blocks
		// admission, an empty list here means a concurrent-modification bug
		log.Errorf("Fulfillment rejected, requestId %s arrived with empty participant list", requestId)
		return common.Address{}, ErrNoParticipants
	}

	// big.Int Mod is Euclidean, the index is always in [0, count)
	index := new(big.Int).Mod(randomWords[0], big.NewInt(int64(count))).Int64()
	winner := s.round.Participants[index]
	prize := s.round.Pool
	settledSeq := s.round.Seq
	now := time.Now()

	if err := s.rail.Credit(winner, prize); err != nil {
		log.Errorf("Payout failed, round %d, winner %s, prize %d: %v", settledSeq, winner.Hex(), prize, err)
		s.EventBus.Publish(PayoutFailed, PayoutFailedEvent{
			RoundSeq: settledSeq,
			Winner:   winner,
			Prize:    prize,
			Reason:   err.Error(),
		})
		return common.Address{}, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}

	err := s.dbm.GetRoundDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Round{}).Where("seq = ?", settledSeq).
			Updates(map[string]interface{}{"status": db.ROUND_STATUS_SETTLED, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.RandomnessRequest{}).Where("request_id = ?", requestId).
			Updates(map[string]interface{}{"status": db.REQUEST_STATUS_FULFILLED, "updated_at": now}).Error; err != nil {
			return err
		}
		record := &db.WinnerRecord{
			RoundSeq:    settledSeq,
			Participant: winner.Hex(),
			Prize:       prize,
			RequestId:   requestId,
			RandomWord:  randomWords[0].String(),
			SettledAt:   now,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		next := &db.Round{
			Seq:            settledSeq + 1,
			Status:         db.ROUND_STATUS_OPEN,
			Pool:           0,
			EntryCount:     0,
			LastSettlement: now,
			UpdatedAt:      now,
		}
		return tx.Create(next).Error
	})
	if err != nil {
		// funds are already with the winner, the in-memory flip still commits
		// and the DB catches up on the next mutation or restart
		log.Errorf("Failed to persist settlement, round %d, winner %s: %v", settledSeq, winner.Hex(), err)
	}

	s.round = RoundState{
		Seq:            settledSeq + 1,
		Status:         db.ROUND_STATUS_OPEN,
		Pool:           0,
		Participants:   nil,
		LastSettlement: now,
		RecentWinner:   winner,
		HasWinner:      true,
	}

	log.Infof("Round settled, round %d, winner %s, prize %d, requestId %s", settledSeq, winner.Hex(), prize, requestId)
	s.EventBus.Publish(WinnerSelected, WinnerSelectedEvent{
		RoundSeq:  settledSeq,
		Winner:    winner,
		Prize:     prize,
		RequestID: requestId,
	})
	return winner, nil
}
