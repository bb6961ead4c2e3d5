package trigger

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/db"
	"github.com/raffnet/raffle-node/internal/payout"
	"github.com/raffnet/raffle-node/internal/state"
	"github.com/raffnet/raffle-node/internal/vrf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRequester struct {
	calls atomic.Int32
}

func (r *countingRequester) RequestRandomness(_ context.Context, _ vrf.RequestParams) (string, error) {
	r.calls.Add(1)
	return "0xtriggered", nil
}

func newTestAgent(t *testing.T) (*TriggerAgent, *state.State, *countingRequester) {
	t.Helper()
	config.AppConfig.DbDir = t.TempDir()
	config.AppConfig.EntryFee = 100
	config.AppConfig.RoundInterval = 10 * time.Millisecond
	config.AppConfig.TriggerInterval = 5 * time.Millisecond

	requester := &countingRequester{}
	dbm := db.NewDatabaseManager()
	st := state.InitializeState(dbm, payout.NewLedgerRail(dbm), requester)
	return NewTriggerAgent(st), st, requester
}

func TestPollStartsEligibleRound(t *testing.T) {
	agent, st, requester := newTestAgent(t)

	_, err := st.AddEntry(common.HexToAddress("0x00000000000000000000000000000000000000a1"), 100)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	agent.pollOnce(context.Background())
	assert.Equal(t, int32(1), requester.calls.Load())
	assert.Equal(t, db.ROUND_STATUS_CALCULATING, st.GetStatus())
	assert.Equal(t, "0xtriggered", st.GetPendingRequestID())

	// round is already calculating, a second poll is a no-op
	agent.pollOnce(context.Background())
	assert.Equal(t, int32(1), requester.calls.Load())
}

func TestPollSkipsEmptyRound(t *testing.T) {
	agent, st, requester := newTestAgent(t)

	time.Sleep(20 * time.Millisecond)
	agent.pollOnce(context.Background())

	assert.Equal(t, int32(0), requester.calls.Load())
	assert.Equal(t, db.ROUND_STATUS_OPEN, st.GetStatus())
}

func TestTriggerStopsOnCancel(t *testing.T) {
	agent, _, _ := newTestAgent(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agent.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger agent did not stop on context cancel")
	}
}
