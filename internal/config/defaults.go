// Package config provides configuration loading, defaults, and validation for
// EdgarLens.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "edgarlens"
	DefaultDBMaxConns = 25

	DefaultNeo4jURI          = "bolt://localhost:7687"
	DefaultNeo4jDatabase     = "neo4j"
	DefaultNeo4jMaxRetries   = 3
	DefaultNeo4jRetryBackoff = 200 * time.Millisecond

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisTTL  = 15 * time.Minute

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "edgarlens-worker"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMaxHops           = 4
	DefaultHopCeiling        = 6
	DefaultNeighborhoodDepth = 3
	DefaultAddressCluster    = 5
	DefaultNomineeBoards     = 10
	DefaultHighSecrecyScore  = 70
	DefaultLongChainDepth    = 4
	DefaultClusterWindowDays = 30
	DefaultClusterMinBuyers  = 3
)

// DefaultRiskWeights returns the base-weight table used when the
// configuration does not override individual detector weights.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		SanctionedConnection:    40,
		PEPConnection:           20,
		CircularOwnership:       25,
		SecrecyJurisdiction:     20,
		HighSecrecyJurisdiction: 30,
		MassRegistrationAddress: 15,
		ConflictOfInterest:      30,
		NomineeDirector:         15,
		LongOwnershipChain:      10,
	}
}

// DefaultRiskThresholds returns the score bands for risk levels:
// low below 25, medium 25-49, high 50-79, critical from 80.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{Medium: 25, High: 50, Critical: 80}
}

// ApplyDefaults fills every zero-value field in cfg with the application
// default. Fields that have already been set by the caller (non-zero values)
// are left unchanged so that explicit configuration always wins.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "file://migrations"
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = 50
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = 5 * time.Second
	}
	if cfg.Neo4j.MaxRetries == 0 {
		cfg.Neo4j.MaxRetries = DefaultNeo4jMaxRetries
	}
	if cfg.Neo4j.RetryBackoff == 0 {
		cfg.Neo4j.RetryBackoff = DefaultNeo4jRetryBackoff
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "edgarlens"
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.DefaultMaxHops == 0 {
		cfg.Engine.DefaultMaxHops = DefaultMaxHops
	}
	if cfg.Engine.HopCeiling == 0 {
		cfg.Engine.HopCeiling = DefaultHopCeiling
	}
	if cfg.Engine.NeighborhoodDepth == 0 {
		cfg.Engine.NeighborhoodDepth = DefaultNeighborhoodDepth
	}
	if cfg.Engine.AddressClusterThreshold == 0 {
		cfg.Engine.AddressClusterThreshold = DefaultAddressCluster
	}
	if cfg.Engine.NomineeBoardThreshold == 0 {
		cfg.Engine.NomineeBoardThreshold = DefaultNomineeBoards
	}
	if cfg.Engine.HighSecrecyScore == 0 {
		cfg.Engine.HighSecrecyScore = DefaultHighSecrecyScore
	}
	if cfg.Engine.LongChainDepth == 0 {
		cfg.Engine.LongChainDepth = DefaultLongChainDepth
	}
	if cfg.Engine.ClusterWindowDays == 0 {
		cfg.Engine.ClusterWindowDays = DefaultClusterWindowDays
	}
	if cfg.Engine.ClusterMinBuyers == 0 {
		cfg.Engine.ClusterMinBuyers = DefaultClusterMinBuyers
	}
	if cfg.Engine.AssessmentCacheTTL == 0 {
		cfg.Engine.AssessmentCacheTTL = 15 * time.Minute
	}
	if cfg.Engine.ConnectionCacheTTL == 0 {
		cfg.Engine.ConnectionCacheTTL = 15 * time.Minute
	}
	if cfg.Engine.RiskWeights == (RiskWeights{}) {
		cfg.Engine.RiskWeights = DefaultRiskWeights()
	}
	if cfg.Engine.RiskThresholds == (RiskThresholds{}) {
		cfg.Engine.RiskThresholds = DefaultRiskThresholds()
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
