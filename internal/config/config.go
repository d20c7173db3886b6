// Package config defines all configuration structures for EdgarLens.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the alert archive.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// Neo4jConfig holds the fact-store connection parameters.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	Database              string        `mapstructure:"database"`
	MaxRetries            int           `mapstructure:"max_retries"`
	RetryBackoff          time.Duration `mapstructure:"retry_backoff"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// RiskWeights is the base-weight table for the risk factor detectors.
// Weights are positive integers; a detector that does not trigger
// contributes nothing.
type RiskWeights struct {
	SanctionedConnection    int `mapstructure:"sanctioned_connection"`
	PEPConnection           int `mapstructure:"pep_connection"`
	CircularOwnership       int `mapstructure:"circular_ownership"`
	SecrecyJurisdiction     int `mapstructure:"secrecy_jurisdiction"`
	HighSecrecyJurisdiction int `mapstructure:"high_secrecy_jurisdiction"`
	MassRegistrationAddress int `mapstructure:"mass_registration_address"`
	ConflictOfInterest      int `mapstructure:"conflict_of_interest"`
	NomineeDirector         int `mapstructure:"nominee_director"`
	LongOwnershipChain      int `mapstructure:"long_ownership_chain"`
}

// RiskThresholds maps aggregate scores to risk levels. A score below
// Medium is low; below High is medium; below Critical is high;
// everything at or above Critical is critical.
type RiskThresholds struct {
	Medium   int `mapstructure:"medium"`
	High     int `mapstructure:"high"`
	Critical int `mapstructure:"critical"`
}

// EngineConfig holds the tunables of the analysis engine itself.
type EngineConfig struct {
	// DefaultMaxHops is the connection-search depth used when the caller
	// does not supply one. HopCeiling is the hard upper bound a caller
	// may request.
	DefaultMaxHops int `mapstructure:"default_max_hops"`
	HopCeiling     int `mapstructure:"hop_ceiling"`

	// NeighborhoodDepth bounds the traversal used by risk detectors.
	NeighborhoodDepth int `mapstructure:"neighborhood_depth"`

	// AddressClusterThreshold is the number of unrelated entities at one
	// registered address that marks it as a mass-registration address.
	AddressClusterThreshold int `mapstructure:"address_cluster_threshold"`

	// NomineeBoardThreshold is the number of simultaneous board seats
	// that marks a person as a probable nominee director.
	NomineeBoardThreshold int `mapstructure:"nominee_board_threshold"`

	// HighSecrecyScore is the jurisdiction secrecy score at or above
	// which the higher secrecy weight applies.
	HighSecrecyScore int `mapstructure:"high_secrecy_score"`

	// LongChainDepth is the ownership-chain depth beyond which the
	// long-chain factor triggers.
	LongChainDepth int `mapstructure:"long_chain_depth"`

	// ClusterWindowDays is the default insider-cluster sliding window.
	// ClusterMinBuyers is the distinct-buyer count required to emit a
	// cluster.
	ClusterWindowDays int `mapstructure:"cluster_window_days"`
	ClusterMinBuyers  int `mapstructure:"cluster_min_buyers"`

	// AssessmentCacheTTL and ConnectionCacheTTL bound staleness of
	// cached analysis results. Zero disables caching for that result
	// type.
	AssessmentCacheTTL time.Duration `mapstructure:"assessment_cache_ttl"`
	ConnectionCacheTTL time.Duration `mapstructure:"connection_cache_ttl"`

	RiskWeights    RiskWeights    `mapstructure:"risk_weights"`
	RiskThresholds RiskThresholds `mapstructure:"risk_thresholds"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the application. Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}

	// Neo4j
	if c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}

	// Engine
	if c.Engine.DefaultMaxHops < 1 {
		return fmt.Errorf("config: engine.default_max_hops must be >= 1, got %d", c.Engine.DefaultMaxHops)
	}
	if c.Engine.HopCeiling < c.Engine.DefaultMaxHops {
		return fmt.Errorf("config: engine.hop_ceiling %d is below engine.default_max_hops %d",
			c.Engine.HopCeiling, c.Engine.DefaultMaxHops)
	}
	if c.Engine.ClusterMinBuyers < 2 {
		return fmt.Errorf("config: engine.cluster_min_buyers must be >= 2, got %d", c.Engine.ClusterMinBuyers)
	}
	if c.Engine.ClusterWindowDays < 1 {
		return fmt.Errorf("config: engine.cluster_window_days must be >= 1, got %d", c.Engine.ClusterWindowDays)
	}
	t := c.Engine.RiskThresholds
	if !(t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("config: engine.risk_thresholds must be strictly increasing, got %d/%d/%d",
			t.Medium, t.High, t.Critical)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
