// Command decisiond is the governance decision engine's process
// entrypoint: load configuration, load (or generate) the signing
// identity, load the active policy, wire the ledger and decision
// service, and serve HTTP.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackrose-blackhat/decisionguard/internal/canon"
	"github.com/blackrose-blackhat/decisionguard/internal/config"
	"github.com/blackrose-blackhat/decisionguard/internal/decision"
	"github.com/blackrose-blackhat/decisionguard/internal/engine"
	"github.com/blackrose-blackhat/decisionguard/internal/escalation"
	"github.com/blackrose-blackhat/decisionguard/internal/identity"
	"github.com/blackrose-blackhat/decisionguard/internal/ledger"
	"github.com/blackrose-blackhat/decisionguard/internal/metrics"
	"github.com/blackrose-blackhat/decisionguard/internal/model"
	"github.com/blackrose-blackhat/decisionguard/internal/obslog"
	"github.com/blackrose-blackhat/decisionguard/internal/policy"
	"github.com/blackrose-blackhat/decisionguard/internal/store"
	"github.com/blackrose-blackhat/decisionguard/internal/transport/httpapi"
)

func main() {
	logger := log.New(os.Stdout, "[decisiond] ", log.LstdFlags)

	cfg := config.Load()
	logger.Println("configuration loaded")

	obsLogger, err := obslog.New(cfg.Logging.Path)
	if err != nil {
		logger.Fatalf("open operational log: %v", err)
	}
	defer obsLogger.Close()

	signingKey, err := loadOrGenerateKey(cfg.Identity.SeedHex)
	if err != nil {
		logger.Fatalf("load signing key: %v", err)
	}
	ring := identity.NewKeyRing(signingKey)
	logger.Printf("signing key active: %s", signingKey.ID)

	db, err := store.NewLevelDB(cfg.Ledger.DataDir)
	if err != nil {
		logger.Fatalf("open ledger store: %v", err)
	}
	defer db.Close()

	led := ledger.New(db, ring, cfg.Ledger.MaxWaiters)

	active := policy.NewActive()
	loader := policy.NewLoader(cfg.Policy.Path, obsLogger, func(p model.Policy, previousHash [32]byte, hasPrevious bool) {
		payload, err := canon.PolicyLoadedPayload(model.PolicyLoadedPayload{
			PolicyID:            p.PolicyID,
			VersionHash:         p.VersionHash,
			PreviousVersionHash: previousHash,
			HasPrevious:         hasPrevious,
		})
		if err != nil {
			obsLogger.Errorf("encode policy_loaded payload", obslog.Fields{"error": err.Error()})
			return
		}
		if _, err := led.Append(context.Background(), systemTenant, model.EventPolicyLoaded, payload, time.Now()); err != nil {
			obsLogger.Errorf("record policy_loaded entry", obslog.Fields{"error": err.Error()})
		}
	})
	if _, err := loader.Load(active); err != nil {
		logger.Fatalf("load policy: %v", err)
	}
	logger.Printf("policy loaded from %s", cfg.Policy.Path)

	deps := engine.Deps{
		RateCounter: engine.NewSlidingWindowCounter(),
		Approvals:   engine.KeyRingApprovalVerifier{Ring: ring},
	}

	metricsSink := metrics.NewSink(0)
	defer metricsSink.Close()

	escalations := escalation.NewQueue()

	svc := decision.NewService(active, led, ring, deps, obsLogger, cfg.Decision.IdempotencyRetention)
	svc.Metrics = metricsSink
	svc.Escalations = escalations

	mux := http.NewServeMux()
	httpapi.NewServer(svc, logger).Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Println("=================================")
		logger.Println("Decision Engine Starting")
		logger.Println("=================================")
		logger.Printf("Server:  http://%s", addr)
		logger.Printf("Metrics: %v", cfg.Metrics.Enabled)
		logger.Println("=================================")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

// systemTenant is the ledger tenant used for policy-lifecycle events,
// which are not scoped to any one decision-requesting tenant.
const systemTenant = "_system"

func loadOrGenerateKey(seedHex string) (identity.Key, error) {
	if seedHex == "" {
		return identity.GenerateKey(time.Now())
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return identity.Key{}, fmt.Errorf("decode SIGNING_KEY_SEED_HEX: %w", err)
	}
	return identity.KeyFromSeed(seed, time.Now())
}
