package postgres

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/vulnconsole/vulnconsole/db"
	"github.com/vulnconsole/vulnconsole/internal/logging"
)

// Migrate applies every pending embedded migration to databaseURL.
func Migrate(databaseURL string, logger *slog.Logger) error {
	logger = logging.OrDiscard(logger)

	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("close migrations", "source_err", srcErr, "database_err", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no changes to apply")
			return nil
		}
		return err
	}

	logger.Info("migrations applied successfully")
	return nil
}

// MigrateURL rewrites a postgres URL to the scheme of the pgx migration driver.
func MigrateURL(databaseURL string) string {
	databaseURL = strings.TrimSpace(databaseURL)
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
