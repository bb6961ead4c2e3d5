package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raffnet/raffle-node/internal/config"
	"github.com/raffnet/raffle-node/internal/state"
	log "github.com/sirupsen/logrus"
)

type HTTPServer struct {
	state *state.State
}

func NewHTTPServer(state *state.State) *HTTPServer {
	return &HTTPServer{state: state}
}

func (hs *HTTPServer) Start(ctx context.Context) {
	r := gin.Default()
	hs.registerRoutes(r)

	// Use configuration port
	addr := ":" + config.AppConfig.HTTPPort
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Infof("HTTP server is running on port %s", config.AppConfig.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
}

func (hs *HTTPServer) registerRoutes(r *gin.Engine) {
	r.GET("/api/v1/raffle", hs.handleRaffleInfo)
	r.POST("/api/v1/raffle/enter", hs.handleEnter)
	r.GET("/api/v1/raffle/eligibility", hs.handleEligibility)
	r.POST("/api/v1/raffle/start", hs.handleStartRound)
	r.GET("/api/v1/raffle/players/:index", hs.handlePlayer)
	r.POST("/api/v1/vrf/fulfill", hs.handleFulfill)
}
