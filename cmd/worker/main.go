// Worker entry point for EdgarLens.
//
// Consumes filing.received events, classifies each filing, folds in the
// insider-trading context and raises alerts; in parallel it runs periodic
// insider-cluster scans guarded by a Redis lock so only one worker scans
// at a time. A small HTTP listener exposes Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/internal/application/insider"
	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j"
	neorepos "github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j/repositories"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres"
	pgrepos "github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres/repositories"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/redis"
	"github.com/edgarlens/edgarlens/internal/infrastructure/messaging/kafka"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/prometheus"
	"github.com/edgarlens/edgarlens/internal/worker"
)

// Build metadata, injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const (
	defaultConfigPath  = "configs/config.yaml"
	defaultMetricsAddr = ":9091"
	shutdownTimeout    = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	fromEnv := flag.Bool("from-env", false, "load configuration from EDGARLENS_* environment variables only")
	metricsAddr := flag.String("metrics-addr", defaultMetricsAddr, "listen address for the metrics endpoint")
	scanInterval := flag.Duration("scan-interval", 15*time.Minute, "interval between insider-cluster scans")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *fromEnv {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "worker: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting edgarlens worker",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.String("build_date", buildDate),
		logging.String("group_id", cfg.Kafka.GroupID),
	)

	if err := run(cfg, logger, *metricsAddr, *scanInterval); err != nil {
		logger.Fatal("worker exited with error", logging.Err(err))
	}
}

func run(cfg *config.Config, logger logging.Logger, metricsAddr string, scanInterval time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Backing stores ───────────────────────────────────────────────────
	pgConn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pgConn.Close()
	alertArchive := pgrepos.NewPostgresAlertRepo(pgConn, logger)

	graphDriver, err := neo4j.NewDriver(cfg.Neo4j, logger)
	if err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	defer graphDriver.Close()
	factStore := neorepos.NewFactStore(graphDriver, logger)

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()
	scanLock := redis.NewLockFactory(redisClient, logger).NewMutex("cluster-scan")

	// ── Kafka ────────────────────────────────────────────────────────────
	topicManager, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		return fmt.Errorf("kafka topics: %w", err)
	}
	defer topicManager.Close()
	if err := topicManager.EnsureDefaultTopics(ctx); err != nil {
		return fmt.Errorf("kafka topics: %w", err)
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:    cfg.Kafka.Brokers,
		MaxRetries: cfg.Kafka.ProducerRetries,
		BatchSize:  cfg.Kafka.BatchSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{kafka.TopicFilingReceived},
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      3,
			RetryBackoff:    time.Second,
			MaxRetryBackoff: 30 * time.Second,
			DeadLetterTopic: kafka.TopicDeadLetter,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}

	// ── Pipeline ─────────────────────────────────────────────────────────
	detector := insider.NewDetector(factStore, logger, cfg.Engine)
	alerts := alert.NewService(alertArchive, kafka.NewAlertPublisher(producer), logger)

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "edgarlens",
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	w := worker.New(factStore, detector, alerts, logger,
		worker.WithMetrics(prometheus.NewAppMetrics(collector)),
		worker.WithScanLock(scanLock),
		worker.WithScanInterval(scanInterval),
		worker.WithWindowDays(cfg.Engine.ClusterWindowDays),
	)
	w.Register(consumer)

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	go w.RunClusterScans(ctx)

	// ── Metrics listener ─────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics listener started", logging.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutdown signal received", logging.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics listener shutdown error", logging.Err(err))
	}
	if err := consumer.Close(); err != nil {
		logger.Error("kafka consumer close error", logging.Err(err))
	}
	logger.Info("worker stopped")
	return nil
}
