// Package postgres stores backup integrations and sessions in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vulnconsole/vulnconsole/internal/backups"
)

// BackupStore is a backups.Store backed by the backup_integrations table.
type BackupStore struct {
	pool *pgxpool.Pool
}

func NewBackupStore(pool *pgxpool.Pool) *BackupStore {
	return &BackupStore{pool: pool}
}

const selectIntegrationColumns = `SELECT id::text, kind, config, created_at, updated_at FROM backup_integrations`

func (s *BackupStore) List(ctx context.Context) ([]backups.Integration, error) {
	rows, err := s.pool.Query(ctx, selectIntegrationColumns+` ORDER BY kind, lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("list backup integrations: %w", err)
	}
	defer rows.Close()

	var out []backups.Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list backup integrations: %w", err)
	}
	return out, nil
}

func (s *BackupStore) Get(ctx context.Context, id string) (backups.Integration, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return backups.Integration{}, backups.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, selectIntegrationColumns+` WHERE id = $1`, parsed)
	in, err := scanIntegration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return backups.Integration{}, backups.ErrNotFound
	}
	return in, err
}

func (s *BackupStore) Create(ctx context.Context, in backups.Integration) (backups.Integration, error) {
	raw, err := backups.EncodeConfig(in.Config)
	if err != nil {
		return backups.Integration{}, fmt.Errorf("encode backup integration config: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO backup_integrations (id, kind, name, config)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, kind, config, created_at, updated_at`,
		uuid.New(), in.Kind, in.Config.Name, raw,
	)
	created, err := scanIntegration(row)
	if err != nil {
		return backups.Integration{}, fmt.Errorf("create backup integration: %w", err)
	}
	return created, nil
}

func (s *BackupStore) Update(ctx context.Context, in backups.Integration) (backups.Integration, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(in.ID))
	if err != nil {
		return backups.Integration{}, backups.ErrNotFound
	}
	raw, err := backups.EncodeConfig(in.Config)
	if err != nil {
		return backups.Integration{}, fmt.Errorf("encode backup integration config: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE backup_integrations
		SET name = $2, config = $3, updated_at = now()
		WHERE id = $1
		RETURNING id::text, kind, config, created_at, updated_at`,
		parsed, in.Config.Name, raw,
	)
	updated, err := scanIntegration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return backups.Integration{}, backups.ErrNotFound
	}
	if err != nil {
		return backups.Integration{}, fmt.Errorf("update backup integration: %w", err)
	}
	return updated, nil
}

func (s *BackupStore) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return backups.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM backup_integrations WHERE id = $1`, parsed)
	if err != nil {
		return fmt.Errorf("delete backup integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return backups.ErrNotFound
	}
	return nil
}

func scanIntegration(row pgx.Row) (backups.Integration, error) {
	var (
		in  backups.Integration
		raw []byte
	)
	if err := row.Scan(&in.ID, &in.Kind, &raw, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return backups.Integration{}, err
	}
	cfg, err := backups.DecodeConfig(raw)
	if err != nil {
		return backups.Integration{}, fmt.Errorf("decode backup integration %s config: %w", in.ID, err)
	}
	in.Config = cfg
	return in, nil
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
