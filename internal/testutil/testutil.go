// Package testutil connects tests to the Postgres and Redis instances named
// by config.LoadTestConfig. Tests that need them are skipped when they are
// not reachable.
package testutil

import (
	"context"
	"sync"
	"testing"

	"tixify/config"
	"tixify/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var (
	pgOnce sync.Once
	pgPool *pgxpool.Pool
	pgErr  error

	redisOnce   sync.Once
	redisClient *redis.Client
	redisErr    error
)

// Postgres returns a migrated pool shared by the test binary, or skips t.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pgOnce.Do(func() {
		cfg := config.LoadTestConfig()
		pgPool, pgErr = database.InitDatabase(&cfg.Database)
		if pgErr != nil {
			return
		}
		pgErr = database.Migrate(context.Background(), pgPool)
	})
	if pgErr != nil {
		t.Skipf("postgres not available: %v", pgErr)
	}
	return pgPool
}

// Redis returns a client on the test DB index, or skips t.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	redisOnce.Do(func() {
		cfg := config.LoadTestConfig()
		redisClient, redisErr = database.InitRedis(&cfg.Redis)
	})
	if redisErr != nil {
		t.Skipf("redis not available: %v", redisErr)
	}
	return redisClient
}

// ResetDatabase empties every table and restarts the id sequences.
func ResetDatabase(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE checkin_audit, tickets, ticket_tiers, events RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

// FlushRedis empties the test Redis DB.
func FlushRedis(t *testing.T, client *redis.Client) {
	t.Helper()
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}
