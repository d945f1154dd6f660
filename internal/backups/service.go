package backups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vulnconsole/vulnconsole/internal/logging"
	"github.com/vulnconsole/vulnconsole/internal/metrics"
)

// ErrNotTested is returned by Save when the configuration did not pass a
// connection test.
var ErrNotTested = errors.New("backups: configuration has not passed a connection test")

// Service combines validation, connection tests, storage and events.
type Service struct {
	store     Store
	tester    *Tester
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type ServiceOptions struct {
	Publisher Publisher
	Logger    *slog.Logger
}

func NewService(store Store, tester *Tester, opts ServiceOptions) *Service {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Service{
		store:     store,
		tester:    tester,
		publisher: publisher,
		logger:    logging.OrDiscard(opts.Logger),
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]Integration, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Integration, error) {
	return s.store.Get(ctx, id)
}

// Stored returns the config of id for kind, or nil when id is blank.
func (s *Service) Stored(ctx context.Context, kind, id string) (*Config, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Kind != kind {
		return nil, ErrNotFound
	}
	cfg := existing.Config
	return &cfg, nil
}

// Test validates f and runs its connection test. On success it returns the
// fingerprint that Save accepts.
func (s *Service) Test(ctx context.Context, kind string, f Form, stored *Config) (string, error) {
	cfg, errs := f.Config(kind, stored)
	if len(errs) > 0 {
		return "", errs
	}
	if err := s.tester.Test(ctx, kind, cfg); err != nil {
		s.logger.Info("backup integration test failed", "kind", kind, "name", cfg.Name, "err", err)
		return "", err
	}
	return Fingerprint(kind, cfg), nil
}

// Save stores f as a new integration, or updates id when it is set. The
// resulting configuration must match testedFingerprint.
func (s *Service) Save(ctx context.Context, kind, id string, f Form, testedFingerprint string) (Integration, error) {
	if NormalizeKind(kind) == "" {
		return Integration{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	stored, err := s.Stored(ctx, kind, id)
	if err != nil {
		return Integration{}, err
	}
	cfg, errs := f.Config(kind, stored)
	if len(errs) > 0 {
		return Integration{}, errs
	}
	if testedFingerprint == "" || Fingerprint(kind, cfg) != testedFingerprint {
		return Integration{}, ErrNotTested
	}
	return s.put(ctx, kind, id, cfg)
}

// Import stores cfg without a connection test. Callers validate first.
func (s *Service) Import(ctx context.Context, kind string, cfg Config) (Integration, error) {
	if NormalizeKind(kind) == "" {
		return Integration{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s.put(ctx, kind, "", cfg.Normalized(kind))
}

// TestStored runs the connection test of a stored integration.
func (s *Service) TestStored(ctx context.Context, id string) (Integration, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return Integration{}, err
	}
	return existing, s.tester.Test(ctx, existing.Kind, existing.Config)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, existing.ID); err != nil {
		return err
	}
	metrics.BackupIntegrationWritesTotal.WithLabelValues(existing.Kind, EventDeleted).Inc()
	s.publish(ctx, EventDeleted, existing)
	return nil
}

func (s *Service) put(ctx context.Context, kind, id string, cfg Config) (Integration, error) {
	in := Integration{ID: strings.TrimSpace(id), Kind: kind, Config: cfg}

	var (
		saved  Integration
		action string
		err    error
	)
	if in.ID == "" {
		saved, err = s.store.Create(ctx, in)
		action = EventCreated
	} else {
		saved, err = s.store.Update(ctx, in)
		action = EventUpdated
	}
	if err != nil {
		return Integration{}, err
	}

	metrics.BackupIntegrationWritesTotal.WithLabelValues(kind, action).Inc()
	s.publish(ctx, action, saved)
	return saved, nil
}

func (s *Service) publish(ctx context.Context, action string, in Integration) {
	event := Event{
		Action:     action,
		ID:         in.ID,
		Kind:       in.Kind,
		Name:       in.Config.Name,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish backup integration event failed", "action", action, "id", in.ID, "err", err)
	}
}
