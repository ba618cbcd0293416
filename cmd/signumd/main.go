// Copyright 2025 Certen Protocol
//
// signumd - Reference host binary wiring the signature collection
// coordinator to a YAML config, a Prometheus/health HTTP surface, and
// a demo signing run.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/signum/internal/demo"
	"github.com/certen/signum/pkg/config"
	"github.com/certen/signum/pkg/coordinator"
	"github.com/certen/signum/pkg/driver"
	"github.com/certen/signum/pkg/factors"
	"github.com/certen/signum/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a coordinator config YAML file (optional)")
	flag.Parse()

	logger := log.New(os.Stdout, "[signumd] ", log.LstdFlags)

	cfg := &config.CoordinatorConfig{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if err := loaded.Validate(); err != nil {
			log.Fatalf("invalid config: %v", err)
		}
		cfg = loaded
	} else {
		cfg.Environment = "development"
		cfg.Retry.MaxAttempts = 3
		cfg.Retry.Backoff = config.Duration(2 * time.Second)
		cfg.Monitoring.Enabled = true
		cfg.Monitoring.ListenAddr = ":9090"
		cfg.Monitoring.MetricsPath = "/metrics"
		cfg.Monitoring.HealthPath = "/healthz"
	}
	logger.Printf("running in %s mode", cfg.Environment)

	registry := metrics.NewRegistry()
	promReg := prometheus.NewRegistry()
	if err := registry.Register(promReg); err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var httpServer *http.Server
	if cfg.Monitoring.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Monitoring.MetricsPath, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		mux.HandleFunc(cfg.Monitoring.HealthPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		httpServer = &http.Server{Addr: cfg.Monitoring.ListenAddr, Handler: mux}
		go func() {
			logger.Printf("📡 metrics/health listening on %s", cfg.Monitoring.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("http server error: %v", err)
			}
		}()
	}

	go runDemo(ctx, logger, registry, cfg.Retry.MaxAttempts)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Printf("🛑 shutting down signumd")
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http server shutdown error: %v", err)
		}
	}
	logger.Printf("✅ signumd stopped")
}

// runDemo builds a small securified-entity batch and drives it through
// one Coordinator.Sign call using the internal/demo reference
// implementations, purely to exercise the wiring end to end. Ledger
// sources (hardware cards) run through the Serial driver; the Device
// source (on-device key material) runs through the Parallel driver,
// per §4.5/§5's split between the two concurrency modes.
func runDemo(ctx context.Context, logger *log.Logger, registry *metrics.Registry, maxAttempts int) {
	ledgerA := factors.NewFactorSourceID([]byte("ledger-a"))
	ledgerB := factors.NewFactorSourceID([]byte("ledger-b"))
	deviceA := factors.NewFactorSourceID([]byte("device-a"))

	known := factors.NewKnownSources([]factors.FactorSource{
		{ID: ledgerA, Kind: factors.FactorSourceKindLedger},
		{ID: ledgerB, Kind: factors.FactorSourceKindLedger},
		{ID: deviceA, Kind: factors.FactorSourceKindDevice},
	})

	threshold := factors.FactorList{
		Factors: []factors.FactorInstance{{FactorSourceID: ledgerA}, {FactorSourceID: ledgerB}},
		Quorum:  factors.NewThresholdQuorum(2),
	}
	override := factors.FactorList{Factors: []factors.FactorInstance{{FactorSourceID: deviceA}}, Quorum: factors.OverrideQuorum}
	tx := factors.Transaction{
		IntentHash: factors.NewIntentHash([]byte("demo-tx-1")),
		Entities: []factors.Entity{
			{Address: factors.EntityAddress{Value: "account_demo"}, Policy: factors.NewSecurifiedPolicy(threshold, override)},
		},
	}

	signer := demo.DigestSigner{}
	drivers := map[factors.FactorSourceKind]driver.SigningDriver{
		factors.FactorSourceKindLedger: driver.NewSerial(factors.FactorSourceKindLedger, demo.SerialSigningDriver{Signer: signer, Logger: logger}, nil),
		factors.FactorSourceKindDevice: driver.NewParallel(factors.FactorSourceKindDevice, demo.ParallelSigningDriver{Signer: signer, Logger: logger}, nil),
	}

	co, err := coordinator.New([]factors.Transaction{tx}, known, drivers, demo.AutoUser{Logger: logger}, &coordinator.Config{Logger: logger, Metrics: registry, MaxAttempts: maxAttempts})
	if err != nil {
		logger.Printf("demo run: failed to build coordinator: %v", err)
		return
	}

	outcome, err := co.Sign(ctx)
	if err != nil {
		logger.Printf("demo run: Sign failed: %v", err)
		return
	}
	logger.Printf("demo run result:\n%s", demo.FormatOutcome(outcome))
}
