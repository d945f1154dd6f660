package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vulnconsole/vulnconsole/internal/logging"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Enabled reports whether addr names a listen address rather than a disabled marker.
func Enabled(addr string) bool {
	switch strings.ToLower(strings.TrimSpace(addr)) {
	case "", "off", "disabled", "false", "0":
		return false
	default:
		return true
	}
}

// Handler exposes the default registry on /metrics.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Serve listens on addr and serves Handler until ctx is done. It returns
// nil at once when metrics are disabled.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if !Enabled(addr) {
		return nil
	}
	logger = logging.OrDiscard(logger)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", strings.TrimSpace(addr))
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}

	srv := &http.Server{Handler: Handler(), ReadHeaderTimeout: readHeaderTimeout}
	stopped := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stopped()

	logger.Info("metrics listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
