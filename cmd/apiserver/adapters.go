package main

import (
	"context"

	"github.com/edgarlens/edgarlens/internal/infrastructure/database/neo4j"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/postgres"
	"github.com/edgarlens/edgarlens/internal/infrastructure/database/redis"
)

// Readiness adapters for the /readyz endpoint. Each wraps one backing
// store's own health probe under a stable component name.

type postgresChecker struct {
	conn *postgres.Connection
}

func (c postgresChecker) Name() string { return "postgres" }

func (c postgresChecker) Check(ctx context.Context) error {
	return c.conn.HealthCheck(ctx)
}

type neo4jChecker struct {
	driver *neo4j.Driver
}

func (c neo4jChecker) Name() string { return "neo4j" }

func (c neo4jChecker) Check(ctx context.Context) error {
	return c.driver.HealthCheck(ctx)
}

type redisChecker struct {
	client *redis.Client
}

func (c redisChecker) Name() string { return "redis" }

func (c redisChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx)
}
