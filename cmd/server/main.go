package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brandgov/internal/assets"
	"brandgov/internal/genai"
	"brandgov/internal/genai/openai"
	"brandgov/internal/governance"
	governancemetrics "brandgov/internal/governance/metrics"
	"brandgov/internal/journal"
	"brandgov/internal/manuals"
	"brandgov/internal/platform/config"
	"brandgov/internal/platform/httpserver"
	"brandgov/internal/platform/logger"
	"brandgov/internal/platform/objectstore"
	"brandgov/internal/platform/postgres"
	redisplatform "brandgov/internal/platform/redis"
	"brandgov/internal/platform/tracing"
	"brandgov/internal/retrieval"
	retrievalmetrics "brandgov/internal/retrieval/metrics"
	httptransport "brandgov/internal/transport/http"
	txcontext "brandgov/pkg/platform/tx"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal services packages.
func main() {
	log := logger.New(slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	ctx := context.Background()

	provider, err := openai.New(cfg.GenAI)
	if err != nil {
		return err
	}

	var embedder genai.Embedder = provider
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		embedder = genai.NewCachedEmbedder(embedder, redisClient.Client, log)
		log.Info("embedding cache enabled")
	}

	// Store selection: a configured database gets the Postgres stores and the
	// native pgvector search path; otherwise everything runs in memory on the
	// brute-force path.
	var (
		manualStore  manuals.Store
		chunkStore   retrieval.Store
		assetStore   assets.Store
		auditStore   governance.AuditStore
		journalStore journal.Store
		runner       txcontext.Runner
	)
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		manualStore = manuals.NewInMemoryStore()
		chunkStore = retrieval.NewInMemoryStore()
		assetStore = assets.NewInMemoryStore()
		auditStore = governance.NewInMemoryAuditStore()
		journalStore = journal.NewInMemoryStore()
		runner = txcontext.NopRunner{}
	} else {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		manualStore = manuals.NewPostgres(db)
		chunkStore = retrieval.NewPostgres(db)
		assetStore = assets.NewPostgres(db)
		auditStore = governance.NewPostgresAuditStore(db)
		journalStore = journal.NewPostgres(db)
		runner = &txcontext.SQLRunner{DB: db}
	}

	journalOpts := []journal.Option{journal.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		relay, err := journal.NewKafkaRelay(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer relay.Close()
		journalOpts = append(journalOpts, journal.WithRelay(relay))
		log.Info("journal relay enabled", "topic", cfg.Kafka.Topic)
	}
	journalService, err := journal.New(journalStore, journalOpts...)
	if err != nil {
		return err
	}

	retrievalService, err := retrieval.New(chunkStore, embedder,
		retrieval.WithLogger(log),
		retrieval.WithMetrics(retrievalmetrics.New()),
		retrieval.WithTracer(tracing.New("retrieval")),
	)
	if err != nil {
		return err
	}

	manualsService, err := manuals.New(manualStore, provider, retrievalService, runner,
		manuals.WithLogger(log),
		manuals.WithTracer(tracing.New("manuals")),
		manuals.WithMaxChunkChars(cfg.Retrieval.MaxChunkChars),
	)
	if err != nil {
		return err
	}

	assetsService, err := assets.New(assetStore, manualsService, retrievalService, provider, journalService, runner,
		assets.WithLogger(log),
		assets.WithTracer(tracing.New("assets")),
		assets.WithAuditSource(governance.LatestAuditSource{Store: auditStore}),
		assets.WithGenerateTopK(cfg.Retrieval.GenerateTopK),
	)
	if err != nil {
		return err
	}

	governanceOpts := []governance.Option{
		governance.WithLogger(log),
		governance.WithTracer(tracing.New("governance")),
		governance.WithMetrics(governancemetrics.New()),
		governance.WithRequireStageBReason(cfg.Governance.RequireStageBReason),
		governance.WithAuditTopK(cfg.Retrieval.AuditTopK),
	}
	images, err := objectstore.New(ctx, cfg.ObjectStore)
	if err != nil {
		return err
	}
	if images != nil {
		governanceOpts = append(governanceOpts, governance.WithImageStore(images))
		log.Info("audit image store enabled", "bucket", cfg.ObjectStore.Bucket)
	}
	governanceService, err := governance.New(assetStore, auditStore, retrievalService, provider, journalService, runner, governanceOpts...)
	if err != nil {
		return err
	}

	handler := httptransport.NewHandler(httptransport.Services{
		Manuals:    manualsService,
		Assets:     assetsService,
		Governance: governanceService,
	}, log)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting brandgov", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
