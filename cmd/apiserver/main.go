// API server entry point for EdgarLens.
//
// Wires the fact store (Neo4j), the alert archive (Postgres), the result
// cache (Redis) and the alert publisher (Kafka) into the analysis services,
// then serves the REST API until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/internal/application/connection"
	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/application/risk"
	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j"
	neorepos "github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j/repositories"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres"
	pgrepos "github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres/repositories"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/redis"
	"github.com/edgarlens/edgarlens/internal/infrastructure/messaging/kafka"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/edgarlens/edgarlens/internal/interfaces/http"
	"github.com/edgarlens/edgarlens/internal/interfaces/http/handlers"
	"github.com/edgarlens/edgarlens/internal/interfaces/http/middleware"
)

// Build metadata, injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	fromEnv := flag.Bool("from-env", false, "load configuration from EDGARLENS_* environment variables only")
	skipMigrations := flag.Bool("skip-migrations", false, "do not run database migrations on startup")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *fromEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting edgarlens api server",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.String("build_date", buildDate),
		logging.Int("port", cfg.Server.Port),
	)

	if err := run(cfg, logger, *skipMigrations); err != nil {
		logger.Fatal("api server exited with error", logging.Err(err))
	}
}

func loadConfig(path string, fromEnv bool) (*config.Config, error) {
	if fromEnv {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func run(cfg *config.Config, logger logging.Logger, skipMigrations bool) error {
	// ── Postgres: alert archive ──────────────────────────────────────────
	if !skipMigrations {
		dbURL := postgres.BuildDSN(cfg.Database)
		if err := postgres.RunMigrations(dbURL, cfg.Database.MigrationPath); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	pgConn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pgConn.Close()
	alertArchive := pgrepos.NewPostgresAlertRepo(pgConn, logger)

	// ── Neo4j: fact store ────────────────────────────────────────────────
	graphDriver, err := neo4j.NewDriver(cfg.Neo4j, logger)
	if err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	defer graphDriver.Close()
	factStore := neorepos.NewFactStore(graphDriver, logger)

	// ── Redis: result cache ──────────────────────────────────────────────
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewRedisCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)

	// ── Kafka: alert publisher ───────────────────────────────────────────
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:    cfg.Kafka.Brokers,
		MaxRetries: cfg.Kafka.ProducerRetries,
		BatchSize:  cfg.Kafka.BatchSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()
	publisher := kafka.NewAlertPublisher(producer)

	// ── Application services ─────────────────────────────────────────────
	finder := connection.NewFinder(factStore, logger,
		connection.WithBounds(cfg.Engine.DefaultMaxHops, cfg.Engine.HopCeiling),
		connection.WithCache(cache, cfg.Engine.ConnectionCacheTTL),
	)
	assessor := risk.NewAssessor(factStore, logger, cfg.Engine, risk.WithCache(cache))
	detector := insider.NewDetector(factStore, logger, cfg.Engine)
	alerts := alert.NewService(alertArchive, publisher, logger)

	// ── Metrics ──────────────────────────────────────────────────────────
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "edgarlens",
		Subsystem:            "apiserver",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	// ── HTTP layer ───────────────────────────────────────────────────────
	limiter := middleware.NewTokenBucketLimiter(
		middleware.DefaultRateLimitConfig().RequestsPerSecond,
		middleware.DefaultRateLimitConfig().BurstSize,
		middleware.DefaultRateLimitConfig().CleanupInterval,
	)
	defer limiter.Stop()
	rateLimitCfg := middleware.DefaultRateLimitConfig()

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Logger = logger
	routerCfg.Collector = collector
	routerCfg.Logging.Metrics = appMetrics
	routerCfg.RateLimit = &rateLimitCfg
	routerCfg.Limiter = limiter
	routerCfg.ConnectionHandler = handlers.NewConnectionHandler(finder, logger)
	routerCfg.RiskHandler = handlers.NewRiskHandler(assessor, logger)
	routerCfg.SignalHandler = handlers.NewSignalHandler(factStore, detector, logger)
	routerCfg.ClusterHandler = handlers.NewClusterHandler(detector, logger)
	routerCfg.AlertHandler = handlers.NewAlertHandler(alerts, logger)
	routerCfg.HealthHandler = handlers.NewHealthHandler(version,
		postgresChecker{pgConn},
		neo4jChecker{graphDriver},
		redisChecker{redisClient},
	)

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", logging.String("addr", srv.Addr()))
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("api server stopped")
	return nil
}
