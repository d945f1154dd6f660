package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/config"
	httpapp "github.com/vulnconsole/vulnconsole/internal/http"
	"github.com/vulnconsole/vulnconsole/internal/metrics"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

const (
	sessionLifetime   = 12 * time.Hour
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the HTTP server.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()

	cache, cacheCloser, err := newQueryCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer cacheCloser.Close()

	client, err := newCentralClient(ctx, cfg, "", cache, logger)
	if err != nil {
		return err
	}
	fetcher := vulns.NewFetcher(client, vulns.FetcherOptions{ViewStateTTL: cfg.ViewStateTTL, Logger: logger})

	sessions := newSessionManager(cfg)
	var svc *backups.Service
	if cfg.DatabaseURL != "" {
		s, pool, closeStore, err := openBackupService(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		store := pgxstore.New(pool)
		defer store.StopCleanup()
		sessions.Store = store
		svc = s
	} else {
		logger.Warn("DATABASE_URL is not set; backup integrations and sessions are kept in memory")
		pub, closePub, err := newPublisher(cfg, logger)
		if err != nil {
			return err
		}
		defer closePub()
		store := memstore.New()
		defer store.StopCleanup()
		sessions.Store = store
		svc = backups.NewService(backups.NewMemoryStore(), newBackupTester(cfg), backups.ServiceOptions{
			Publisher: pub,
			Logger:    logger,
		})
	}

	es, err := httpapp.NewEchoServer(cfg, httpapp.Dependencies{
		Sessions: sessions,
		Fetcher:  fetcher,
		Backups:  svc,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           es.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.MetricsAddr, logger)
	})
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newSessionManager(cfg config.Config) *scs.SessionManager {
	sessions := scs.New()
	sessions.Lifetime = sessionLifetime
	sessions.Cookie.Name = "vulnconsole_session"
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.SessionCookieSecure
	return sessions
}
