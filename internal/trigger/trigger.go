package trigger

import (
	"context"
	"errors"
	"time"

	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/state"
	log "github.com/sirupsen/logrus"
)

// TriggerAgent polls eligibility and starts the round when it holds. It is
// best-effort automation, StartRound re-validates eligibility itself so a
// delayed or duplicated trigger can never start a stale round.
type TriggerAgent struct {
	state *state.State
}

func NewTriggerAgent(state *state.State) *TriggerAgent {
	return &TriggerAgent{state: state}
}

func (t *TriggerAgent) Start(ctx context.Context) {
	interval := config.AppConfig.TriggerInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("Trigger agent started, polling every %v", interval)
	for {
		select {
		case <-ticker.C:
			t.pollOnce(ctx)
		case <-ctx.Done():
			log.Info("Stopping the trigger agent...")
			return
		}
	}
}

func (t *TriggerAgent) pollOnce(ctx context.Context) {
	eligible, report := t.state.CheckEligibility(time.Now())
	if !eligible {
		log.Debugf("Round not eligible, status %s, pool %d, participants %d, intervalElapsed %t",
			report.Status, report.Pool, report.ParticipantCount, report.IntervalElapsed)
		return
	}

	requestId, err := t.state.StartRound(ctx)
	if err != nil {
		var eligibilityErr *state.EligibilityError
		if errors.As(err, &eligibilityErr) {
			// lost the race against another caller, routine
			log.Debugf("Round start lost eligibility: %v", eligibilityErr)
			return
		}
		log.Errorf("Failed to start round: %v", err)
		return
	}
	log.Infof("Trigger started round, requestId %s", requestId)
}
