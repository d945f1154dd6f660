package backups

import (
	"context"
	"fmt"
	"time"

	"github.com/vulnconsole/vulnconsole/internal/metrics"
)

const defaultTestTimeout = 15 * time.Second

// Checker verifies that a destination is reachable with cfg.
type Checker interface {
	Check(ctx context.Context, cfg Config) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, cfg Config) error

func (f CheckerFunc) Check(ctx context.Context, cfg Config) error {
	return f(ctx, cfg)
}

// Tester dispatches connection tests to the checker of each kind.
type Tester struct {
	checkers map[string]Checker
	timeout  time.Duration
}

func NewTester(checkers map[string]Checker, timeout time.Duration) *Tester {
	if timeout <= 0 {
		timeout = defaultTestTimeout
	}
	copied := make(map[string]Checker, len(checkers))
	for kind, checker := range checkers {
		copied[kind] = checker
	}
	return &Tester{checkers: copied, timeout: timeout}
}

// Test runs the connection test for kind, bounded by the tester timeout.
func (t *Tester) Test(ctx context.Context, kind string, cfg Config) error {
	checker, ok := t.checkers[kind]
	if !ok || checker == nil {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	err := checker.Check(ctx, cfg.Normalized(kind))
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackupTestsTotal.WithLabelValues(kind, status).Inc()
	return err
}
