package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultMetricsAddr       = ":9090"
	defaultCentralTimeout    = 30 * time.Second
	defaultCentralRetryMax   = 2
	defaultQueryCacheTTL     = 30 * time.Second
	defaultViewStateTTL      = 30 * time.Minute
	defaultBackupTestTimeout = 15 * time.Second
	defaultNATSSubjectPrefix = "vulnconsole"
)

type Config struct {
	HTTPAddr            string
	MetricsAddr         string
	DatabaseURL         string
	CentralEndpoint     string
	CentralAPIToken     string
	CentralTimeout      time.Duration
	CentralRetryMax     int
	QueryCacheTTL       time.Duration
	ViewStateTTL        time.Duration
	RedisURL            string
	NATSURL             string
	NATSSubjectPrefix   string
	SessionCookieSecure bool
	BackupTestTimeout   time.Duration
}

type LoadOptions struct {
	RequireCentral     bool
	RequireDatabaseURL bool
}

// Load reads the configuration used by serve and vulns.
func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireCentral: true})
}

// LoadForDatabase reads the configuration used by commands that only touch the store.
func LoadForDatabase() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		HTTPAddr:            getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:         getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CentralEndpoint:     strings.TrimRight(strings.TrimSpace(os.Getenv("CENTRAL_ENDPOINT")), "/"),
		CentralAPIToken:     strings.TrimSpace(os.Getenv("CENTRAL_API_TOKEN")),
		CentralTimeout:      getenvDurationDefault("CENTRAL_TIMEOUT", defaultCentralTimeout),
		CentralRetryMax:     getenvNonNegativeIntDefault("CENTRAL_RETRY_MAX", defaultCentralRetryMax),
		QueryCacheTTL:       getenvDurationDefault("QUERY_CACHE_TTL", defaultQueryCacheTTL),
		ViewStateTTL:        getenvDurationDefault("VIEW_STATE_TTL", defaultViewStateTTL),
		RedisURL:            strings.TrimSpace(os.Getenv("REDIS_URL")),
		NATSURL:             strings.TrimSpace(os.Getenv("NATS_URL")),
		NATSSubjectPrefix:   strings.Trim(getenvDefault("NATS_SUBJECT_PREFIX", defaultNATSSubjectPrefix), ". "),
		SessionCookieSecure: getenvBoolDefault("SESSION_COOKIE_SECURE", false),
		BackupTestTimeout:   getenvDurationDefault("BACKUP_TEST_TIMEOUT", defaultBackupTestTimeout),
	}

	if opts.RequireCentral {
		if cfg.CentralEndpoint == "" {
			return cfg, errors.New("CENTRAL_ENDPOINT is required")
		}
		if err := validateEndpoint(cfg.CentralEndpoint); err != nil {
			return cfg, err
		}
		if cfg.ViewStateTTL < cfg.CentralTimeout {
			return cfg, fmt.Errorf("VIEW_STATE_TTL (%s) must not be shorter than CENTRAL_TIMEOUT (%s)", cfg.ViewStateTTL, cfg.CentralTimeout)
		}
	}
	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func validateEndpoint(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("CENTRAL_ENDPOINT is invalid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("CENTRAL_ENDPOINT must use http or https")
	}
	if strings.TrimSpace(parsed.Hostname()) == "" {
		return errors.New("CENTRAL_ENDPOINT host is required")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getenvNonNegativeIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
