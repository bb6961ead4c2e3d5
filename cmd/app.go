package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/db"
	"github.com/raffnet/raffle-node/internal/http"
	"github.com/raffnet/raffle-node/internal/p2p"
	"github.com/raffnet/raffle-node/internal/payout"
	"github.com/raffnet/raffle-node/internal/state"
	"github.com/raffnet/raffle-node/internal/trigger"
	"github.com/raffnet/raffle-node/internal/vrf"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	DatabaseManager *db.DatabaseManager
	State           *state.State
	HTTPServer      *http.HTTPServer
	TriggerAgent    *trigger.TriggerAgent
	Announcer       *p2p.Announcer
}

func NewApplication() *Application {
	config.InitConfig()

	dbm := db.NewDatabaseManager()
	rail := payout.NewLedgerRail(dbm)
	coordinator := vrf.NewClient(config.AppConfig.VRFCoordinatorURL)
	state := state.InitializeState(dbm, rail, coordinator)
	httpServer := http.NewHTTPServer(state)
	triggerAgent := trigger.NewTriggerAgent(state)
	announcer := p2p.NewAnnouncer(state)

	return &Application{
		DatabaseManager: dbm,
		State:           state,
		HTTPServer:      httpServer,
		TriggerAgent:    triggerAgent,
		Announcer:       announcer,
	}
}

func (app *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.HTTPServer.Start(ctx)
	}()

	if config.AppConfig.EnableTrigger {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.TriggerAgent.Start(ctx)
		}()
	}

	if config.AppConfig.EnableGossip {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Announcer.Start(ctx)
		}()
	}

	<-stop
	log.Info("Receiving exit signal...")

	cancel()

	wg.Wait()
	log.Info("Server stopped")
}

func main() {
	app := NewApplication()
	app.Run()
}
