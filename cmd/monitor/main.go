// Command monitor is the network-availability monitor's process
// entrypoint: it loads configuration, opens the store and credential
// file, starts the monitoring engine, and serves the HTTP/WebSocket API
// until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/last-emo-boy/net-monitor/pkg/api"
	"github.com/last-emo-boy/net-monitor/pkg/config"
	"github.com/last-emo-boy/net-monitor/pkg/credential"
	"github.com/last-emo-boy/net-monitor/pkg/engine"
	"github.com/last-emo-boy/net-monitor/pkg/events"
	"github.com/last-emo-boy/net-monitor/pkg/logging"
	"github.com/last-emo-boy/net-monitor/pkg/metrics"
	"github.com/last-emo-boy/net-monitor/pkg/model"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("monitor: load configuration: %v", err)
	}

	logging.InitDefault("monitor", cfg.Logs.Level, "json")
	logger := logging.Default()

	db, err := store.Open(&cfg.Store)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer db.Close()

	creds, err := openCredentialStore(cfg.Credential.Path)
	if err != nil {
		logger.WithError(err).Fatal("open credential store")
	}

	initial, err := db.NodeRepo().List()
	if err != nil {
		logger.WithError(err).Fatal("load initial node set")
	}

	eng := engine.New(initial, db.NodeRepo(), db.SampleRepo(), db.StatusChangeRepo(), logger,
		engine.WithUpdatesBuffer(32),
		engine.WithPollInterval(time.Duration(cfg.Engine.StopPollIntervalMS)*time.Millisecond))

	hub := events.NewHub()
	metricsReg := metrics.New(prometheus.DefaultRegisterer)

	metricsReg.SetNodesTracked(len(initial))

	engineCtx, cancelEngine := context.WithCancel(context.Background())
	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(engineCtx) }()

	// fan the single engine update stream out to the websocket hub and
	// into the node-status gauge, since engine.Updates() has exactly
	// one reader by design.
	hubUpdates := make(chan model.Node, 32)
	go func() {
		for n := range eng.Updates() {
			metricsReg.SetNodeStatus(n.Name, string(n.Status))
			select {
			case hubUpdates <- n:
			default:
			}
		}
		close(hubUpdates)
	}()

	hubStop := make(chan struct{})
	go hub.Run(hubUpdates, hubStop)

	server := api.New(api.Config{
		Nodes:       db.NodeRepo(),
		Samples:     db.SampleRepo(),
		Changes:     db.StatusChangeRepo(),
		Credentials: creds,
		Commands:    eng.Commands(),
		Hub:         hub,
		Metrics:     metricsReg,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:        server.Handler(),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.WithFields(map[string]interface{}{"addr": httpServer.Addr}).Info("api server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("api server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("api server forced shutdown")
	}

	close(hubStop)
	eng.Stop()
	cancelEngine()
	<-engineDone

	logger.Info("shutdown complete")
}

func openCredentialStore(path string) (*credential.Store, error) {
	password := os.Getenv("MONITOR_CREDENTIAL_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("MONITOR_CREDENTIAL_PASSWORD must be set")
	}
	return credential.Open(path, password)
}
