package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creditnet/internal/admin"
	credithandler "creditnet/internal/credit/handler"
	creditmetrics "creditnet/internal/credit/metrics"
	creditservice "creditnet/internal/credit/service"
	creditstore "creditnet/internal/credit/store"
	identityhandler "creditnet/internal/identity/handler"
	identitymetrics "creditnet/internal/identity/metrics"
	identityservice "creditnet/internal/identity/service"
	identitystore "creditnet/internal/identity/store"
	"creditnet/internal/platform/config"
	"creditnet/internal/platform/database"
	"creditnet/internal/platform/health"
	"creditnet/internal/platform/logger"
	platformredis "creditnet/internal/platform/redis"
	"creditnet/internal/platform/tracer"
	referralhandler "creditnet/internal/referral/handler"
	referralmetrics "creditnet/internal/referral/metrics"
	referralservice "creditnet/internal/referral/service"
	referralstore "creditnet/internal/referral/store"
	scorehandler "creditnet/internal/score/handler"
	scoremodels "creditnet/internal/score/models"
	"creditnet/internal/score/onchain"
	scoreservice "creditnet/internal/score/service"
	scorestore "creditnet/internal/score/store"
	statshandler "creditnet/internal/stats/handler"
	statsmetrics "creditnet/internal/stats/metrics"
	statsservice "creditnet/internal/stats/service"
	httptransport "creditnet/internal/transport/http"
	"creditnet/pkg/platform/middleware/ratelimit"
	"creditnet/pkg/platform/txn"
	"creditnet/pkg/secrets"
)

// invitationBurst lets a client send a short run of invitations before the
// per-minute rate applies.
const invitationBurst = 3

// main wires stores, services, and the HTTP router, then runs the server
// with graceful shutdown. Business logic lives in the internal service
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing creditnet",
		"addr", cfg.Addr,
		"demo_mode", cfg.DemoMode,
	)

	adminTokenHash, err := secrets.Hash(cfg.AdminToken)
	if err != nil {
		log.Error("hash admin token", "error", err)
		os.Exit(1)
	}

	// Stores. The credit event audit trail runs on Postgres when a URL is
	// configured; everything else is in-memory.
	identities := identitystore.NewInMemoryIdentityStore()
	wallets := identitystore.NewInMemoryWalletStore()
	scores := scorestore.NewInMemoryScoreStore()
	invitations := referralstore.NewInMemoryInvitationStore()
	edges := referralstore.NewInMemoryEdgeStore()

	environment := "production"
	if cfg.DemoMode {
		environment = "demo"
	}
	healthHandler := health.New(environment)

	var events creditstore.EventStore = creditstore.NewInMemoryEventStore()
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close() //nolint:errcheck // shutting down anyway
		if err := database.Migrate(pool.DB()); err != nil {
			log.Error("run migrations", "error", err)
			os.Exit(1)
		}
		events = creditstore.NewPostgresEventStore(pool.DB())
		healthHandler.RegisterCheck("postgres", func() error {
			return pool.HealthCheck(context.Background())
		})
		log.Info("credit event store backed by postgres")
	}

	cache, err := platformredis.NewClient(cfg.RedisAddr)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close() //nolint:errcheck // shutting down anyway
		healthHandler.RegisterCheck("redis", func() error {
			return cache.Ping(context.Background()).Err()
		})
	}

	trace := tracer.NewOTel()
	tx := txn.NewInMemory()
	weights := scoremodels.Weights{OnChain: cfg.OnChainWeight, OffChain: cfg.OffChainWeight}
	calc := onchain.New(onchain.NewSyntheticReader())

	scoreSvc := scoreservice.New(scores, wallets, identities, calc, weights,
		scoreservice.WithTracer(trace),
		scoreservice.WithLogger(log),
	)
	identitySvc := identityservice.New(identities, wallets, cfg.IdentitySalt, cfg.WalletCap,
		identityservice.WithRecomputer(scoreSvc),
		identityservice.WithMetrics(identitymetrics.New()),
		identityservice.WithLogger(log),
	)
	referralSvc := referralservice.New(invitations, edges, identities, cfg.IdentitySalt, cfg.InvitationTTL, tx,
		referralservice.WithMetrics(referralmetrics.New()),
		referralservice.WithLogger(log),
	)
	decay := creditservice.Decay{PrimaryRate: cfg.PrimaryRate, DeepRate: cfg.DeepRate}
	creditSvc := creditservice.New(events, scoreSvc, referralSvc, identities, decay, tx,
		creditservice.WithMetrics(creditmetrics.New()),
		creditservice.WithTracer(trace),
		creditservice.WithLogger(log),
	)
	statsOpts := []statsservice.Option{
		statsservice.WithMetrics(statsmetrics.New()),
		statsservice.WithLogger(log),
	}
	if cache != nil {
		statsOpts = append(statsOpts, statsservice.WithCache(cache, cfg.LeaderboardCacheTTL))
	}
	statsSvc := statsservice.New(identities, edges, events, scores, statsOpts...)

	handlers := httptransport.Handlers{
		Identity: identityhandler.New(identitySvc, log),
		Score:    scorehandler.New(scoreSvc, log),
		Referral: referralhandler.New(referralSvc, log),
		Credit:   credithandler.New(creditSvc, log),
		Stats:    statshandler.New(statsSvc, log),
		Health:   healthHandler,
	}
	if cfg.DemoMode {
		handlers.Admin = admin.New(log, identities, wallets, scores, invitations, edges, events)
	}

	opts := httptransport.Options{
		Logger:         log,
		JWTSigningKey:  []byte(cfg.JWTSigningKey),
		AdminTokenHash: adminTokenHash,
	}
	if cfg.InvitationsPerMinute > 0 {
		opts.InviteLimiter = ratelimit.New(cfg.InvitationsPerMinute, invitationBurst, log)
	}
	router := httptransport.New(handlers, opts)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
