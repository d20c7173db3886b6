package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultMaxHops, cfg.Engine.DefaultMaxHops)
	assert.Equal(t, DefaultHopCeiling, cfg.Engine.HopCeiling)
	assert.Equal(t, DefaultClusterMinBuyers, cfg.Engine.ClusterMinBuyers)
	assert.Equal(t, DefaultRiskWeights(), cfg.Engine.RiskWeights)
	assert.Equal(t, DefaultRiskThresholds(), cfg.Engine.RiskThresholds)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Engine.RiskWeights = RiskWeights{SanctionedConnection: 99}
	cfg.Engine.AssessmentCacheTTL = time.Minute
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 99, cfg.Engine.RiskWeights.SanctionedConnection)
	// A partially-set weight table is kept as supplied, not merged.
	assert.Equal(t, 0, cfg.Engine.RiskWeights.PEPConnection)
	assert.Equal(t, time.Minute, cfg.Engine.AssessmentCacheTTL)
}

func TestApplyDefaults_NilIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestDefaultRiskThresholds_Bands(t *testing.T) {
	th := DefaultRiskThresholds()
	assert.Equal(t, 25, th.Medium)
	assert.Equal(t, 50, th.High)
	assert.Equal(t, 80, th.Critical)
}
