package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/backups/gcscheck"
	"github.com/vulnconsole/vulnconsole/internal/backups/s3check"
	"github.com/vulnconsole/vulnconsole/internal/central"
	"github.com/vulnconsole/vulnconsole/internal/config"
	"github.com/vulnconsole/vulnconsole/internal/eventbus"
	"github.com/vulnconsole/vulnconsole/internal/secrets"
	"github.com/vulnconsole/vulnconsole/internal/store/postgres"
)

const redisCachePrefix = "vulnconsole:central:"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newQueryCache returns the shared Redis cache when REDIS_URL is set and an
// in-process cache otherwise.
func newQueryCache(ctx context.Context, cfg config.Config) (central.Cache, io.Closer, error) {
	if cfg.RedisURL == "" {
		return central.NewMemoryCache(cfg.QueryCacheTTL), nopCloser{}, nil
	}
	rc, err := central.NewRedisCache(ctx, cfg.RedisURL, redisCachePrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, rc, nil
}

// newCentralClient resolves the API token and builds the GraphQL client.
// An explicit token wins over CENTRAL_API_TOKEN.
func newCentralClient(ctx context.Context, cfg config.Config, token string, cache central.Cache, logger *slog.Logger) (*central.Client, error) {
	if token == "" {
		resolved, err := secrets.ResolveValue(ctx, cfg.CentralAPIToken)
		if err != nil {
			return nil, fmt.Errorf("resolve CENTRAL_API_TOKEN: %w", err)
		}
		token = resolved
	}
	return central.New(central.Options{
		Endpoint: cfg.CentralEndpoint,
		Token:    token,
		Timeout:  cfg.CentralTimeout,
		RetryMax: cfg.CentralRetryMax,
		Cache:    cache,
		CacheTTL: cfg.QueryCacheTTL,
		Logger:   logger,
	})
}

func newBackupTester(cfg config.Config) *backups.Tester {
	return backups.NewTester(map[string]backups.Checker{
		backups.KindS3:  s3check.New(),
		backups.KindGCS: gcscheck.New(),
	}, cfg.BackupTestTimeout)
}

// newPublisher connects to NATS when NATS_URL is set. Without it events
// are dropped.
func newPublisher(cfg config.Config, logger *slog.Logger) (backups.Publisher, func(), error) {
	if cfg.NATSURL == "" {
		return nil, func() {}, nil
	}
	pub, err := eventbus.NewPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

// openBackupService builds the backup integration service on the Postgres
// store of pool.
func openBackupService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backups.Service, *pgxpool.Pool, func(), error) {
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	pub, closePub, err := newPublisher(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	svc := backups.NewService(postgres.NewBackupStore(pool), newBackupTester(cfg), backups.ServiceOptions{
		Publisher: pub,
		Logger:    logger,
	})
	return svc, pool, func() {
		closePub()
		pool.Close()
	}, nil
}
