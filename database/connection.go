package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rafisarkar/ddlphase/config"
)

var (
	sourcePool *pgxpool.Pool
	sourceOnce sync.Once
	sourceErr  error

	targetPool *pgxpool.Pool
	targetOnce sync.Once
	targetErr  error
)

// Connect opens a pool against the given URL and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// GetSourcePool returns the singleton pool for the database being extracted.
func GetSourcePool(cfg *config.Config) (*pgxpool.Pool, error) {
	sourceOnce.Do(func() {
		if cfg.SourceURL == "" {
			sourceErr = fmt.Errorf("source database URL not set (config or SOURCE_DATABASE_URL)")
			return
		}
		sourcePool, sourceErr = Connect(context.Background(), cfg.SourceURL)
	})
	return sourcePool, sourceErr
}

// GetTargetPool returns the singleton pool for the database being written.
func GetTargetPool(cfg *config.Config) (*pgxpool.Pool, error) {
	targetOnce.Do(func() {
		if cfg.TargetURL == "" {
			targetErr = fmt.Errorf("target database URL not set (config or TARGET_DATABASE_URL)")
			return
		}
		targetPool, targetErr = Connect(context.Background(), cfg.TargetURL)
	})
	return targetPool, targetErr
}

// ClosePools closes both singleton pools; call on shutdown.
func ClosePools() {
	if sourcePool != nil {
		sourcePool.Close()
	}
	if targetPool != nil {
		targetPool.Close()
	}
}
