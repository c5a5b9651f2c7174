package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"roundwise/internal/capa/generate"
	capapublisher "roundwise/internal/capa/publisher"
	capastore "roundwise/internal/capa/store"
	"roundwise/internal/evaluation/catalog"
	catalogstore "roundwise/internal/evaluation/catalog/store"
	"roundwise/internal/evaluation/handler"
	evalmetrics "roundwise/internal/evaluation/metrics"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/service"
	draftstore "roundwise/internal/evaluation/store"
	httpapi "roundwise/internal/http"
	"roundwise/internal/platform/config"
	"roundwise/internal/platform/httpserver"
	"roundwise/internal/platform/kafka"
	"roundwise/internal/platform/logger"
	"roundwise/internal/platform/metrics"
	"roundwise/internal/platform/postgres"
	"roundwise/internal/platform/redis"
	"roundwise/pkg/platform/circuit"
)

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

//nolint:gochecknoglobals // Cobra boilerplate
var migrateOnStart bool

const kafkaFlushTimeout = 5 * time.Second

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

// stores groups the persistence ports the service needs.
type stores struct {
	catalog catalog.Source
	drafts  service.DraftStore
	capa    generate.Committer
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	ctx := cmd.Context()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	evalMetrics := evalmetrics.New(reg)

	checks := map[string]httpapi.HealthCheck{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["postgres"] = db.PingContext
		if migrateOnStart {
			if _, err := postgres.Migrate(ctx, db, log); err != nil {
				return err
			}
		}
	}
	st := buildStores(db, log)

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		checks["redis"] = rc.Health
		st.catalog = catalogstore.NewRedisCache(st.catalog, rc.Client,
			catalogstore.WithTTL(cfg.Evaluation.CatalogCacheTTL),
			catalogstore.WithCacheLogger(log),
			catalogstore.WithCacheMetrics(evalMetrics),
			catalogstore.WithBreaker(circuit.New("catalog-cache")),
		)
	}

	publisher, closeKafka, err := buildPublisher(ctx, cfg.Kafka, log, evalMetrics, checks)
	if err != nil {
		return err
	}
	defer closeKafka()

	policy, err := generate.LoadPolicy(cfg.Evaluation.PolicyFile)
	if err != nil {
		return fmt.Errorf("load capa policy: %w", err)
	}
	threshold, err := models.ParseThreshold(cfg.Evaluation.Threshold)
	if err != nil {
		return err
	}

	loader := catalog.NewLoader(st.catalog, catalog.WithLogger(log), catalog.WithMetrics(evalMetrics))
	svc := service.New(st.drafts, loader, st.capa,
		service.WithLogger(log),
		service.WithMetrics(evalMetrics),
		service.WithEventPublisher(publisher),
		service.WithGenerator(generate.New(generate.WithPolicy(policy))),
		service.WithThreshold(threshold),
		service.WithAutosaveInterval(cfg.Evaluation.AutosaveInterval),
		service.WithSaveTimeout(cfg.Evaluation.SaveTimeout),
	)
	defer svc.Shutdown()

	router := httpapi.NewRouter(httpapi.Config{
		Logger:   log,
		Metrics:  httpMetrics,
		Gatherer: reg,
		Checks:   checks,
		Modules:  []httpapi.Registrar{handler.New(svc, log)},
	})
	srv := httpserver.New(cfg.Server, router)
	err = httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
	log.Info("stopping evaluation sessions", "live_sessions", svc.LiveSessions())
	return err
}

func buildStores(db *sql.DB, log *slog.Logger) stores {
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return stores{
			catalog: catalogstore.NewInMemory(),
			drafts:  draftstore.NewInMemory(),
			capa:    capastore.NewInMemory(),
		}
	}
	return stores{
		catalog: catalogstore.NewPostgres(db),
		drafts:  draftstore.NewPostgres(db),
		capa:    capastore.NewPostgres(db),
	}
}

// buildPublisher returns a publisher that is a no-op when no broker is configured.
func buildPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, m *evalmetrics.Metrics, checks map[string]httpapi.HealthCheck) (*capapublisher.Publisher, func(), error) {
	client, err := kafka.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := []capapublisher.Option{capapublisher.WithLogger(log), capapublisher.WithMetrics(m)}
	if client == nil {
		log.Info("KAFKA_BROKERS not set, domain events are disabled")
		return capapublisher.New(nil, cfg, opts...), func() {}, nil
	}
	if err := kafka.EnsureTopics(ctx, client, cfg, log); err != nil {
		client.Close()
		return nil, nil, err
	}
	checks["kafka"] = func(ctx context.Context) error { return kafka.Health(ctx, client) }

	var producer capapublisher.Producer = client
	closeFn := func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), kafkaFlushTimeout)
		defer cancel()
		if err := client.Flush(flushCtx); err != nil {
			log.Warn("kafka flush failed", "error", err)
		}
		client.Close()
	}
	return capapublisher.New(producer, cfg, opts...), closeFn, nil
}
