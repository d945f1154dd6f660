package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_ADDR", "METRICS_ADDR", "DATABASE_URL", "CENTRAL_ENDPOINT", "CENTRAL_API_TOKEN",
		"CENTRAL_TIMEOUT", "CENTRAL_RETRY_MAX", "QUERY_CACHE_TTL", "VIEW_STATE_TTL",
		"REDIS_URL", "NATS_URL", "NATS_SUBJECT_PREFIX", "SESSION_COOKIE_SECURE", "BACKUP_TEST_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadWithOptions_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadWithOptions(LoadOptions{})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.HTTPAddr != defaultHTTPAddr {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, defaultHTTPAddr)
	}
	if cfg.MetricsAddr != defaultMetricsAddr {
		t.Fatalf("MetricsAddr = %q, want %q", cfg.MetricsAddr, defaultMetricsAddr)
	}
	if cfg.CentralTimeout != defaultCentralTimeout {
		t.Fatalf("CentralTimeout = %s, want %s", cfg.CentralTimeout, defaultCentralTimeout)
	}
	if cfg.CentralRetryMax != defaultCentralRetryMax {
		t.Fatalf("CentralRetryMax = %d, want %d", cfg.CentralRetryMax, defaultCentralRetryMax)
	}
	if cfg.QueryCacheTTL != defaultQueryCacheTTL {
		t.Fatalf("QueryCacheTTL = %s, want %s", cfg.QueryCacheTTL, defaultQueryCacheTTL)
	}
	if cfg.NATSSubjectPrefix != defaultNATSSubjectPrefix {
		t.Fatalf("NATSSubjectPrefix = %q, want %q", cfg.NATSSubjectPrefix, defaultNATSSubjectPrefix)
	}
	if cfg.SessionCookieSecure {
		t.Fatal("SessionCookieSecure = true, want false")
	}
}

func TestLoadWithOptions_ParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CENTRAL_ENDPOINT", "https://central.example.com/")
	t.Setenv("CENTRAL_TIMEOUT", "5s")
	t.Setenv("CENTRAL_RETRY_MAX", "0")
	t.Setenv("QUERY_CACHE_TTL", "2m")
	t.Setenv("NATS_SUBJECT_PREFIX", "acme.console.")
	t.Setenv("SESSION_COOKIE_SECURE", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CentralEndpoint != "https://central.example.com" {
		t.Fatalf("CentralEndpoint = %q, want trailing slash trimmed", cfg.CentralEndpoint)
	}
	if cfg.CentralTimeout != 5*time.Second {
		t.Fatalf("CentralTimeout = %s, want 5s", cfg.CentralTimeout)
	}
	if cfg.CentralRetryMax != 0 {
		t.Fatalf("CentralRetryMax = %d, want 0", cfg.CentralRetryMax)
	}
	if cfg.QueryCacheTTL != 2*time.Minute {
		t.Fatalf("QueryCacheTTL = %s, want 2m", cfg.QueryCacheTTL)
	}
	if cfg.NATSSubjectPrefix != "acme.console" {
		t.Fatalf("NATSSubjectPrefix = %q, want %q", cfg.NATSSubjectPrefix, "acme.console")
	}
	if !cfg.SessionCookieSecure {
		t.Fatal("SessionCookieSecure = false, want true")
	}
}

func TestLoadWithOptions_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CENTRAL_TIMEOUT", "soon")
	t.Setenv("CENTRAL_RETRY_MAX", "-3")
	t.Setenv("VIEW_STATE_TTL", "-1m")
	t.Setenv("SESSION_COOKIE_SECURE", "yes")

	cfg, err := LoadWithOptions(LoadOptions{})
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.CentralTimeout != defaultCentralTimeout {
		t.Fatalf("CentralTimeout = %s, want default", cfg.CentralTimeout)
	}
	if cfg.CentralRetryMax != defaultCentralRetryMax {
		t.Fatalf("CentralRetryMax = %d, want default", cfg.CentralRetryMax)
	}
	if cfg.ViewStateTTL != defaultViewStateTTL {
		t.Fatalf("ViewStateTTL = %s, want default", cfg.ViewStateTTL)
	}
	if cfg.SessionCookieSecure {
		t.Fatal("SessionCookieSecure = true, want default false")
	}
}

func TestLoad_RequiresCentralEndpoint(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want CENTRAL_ENDPOINT error")
	}

	t.Setenv("CENTRAL_ENDPOINT", "ftp://central.example.com")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want scheme error")
	}
}

func TestLoadForDatabase_RequiresDatabaseURL(t *testing.T) {
	clearEnv(t)

	if _, err := LoadForDatabase(); err == nil {
		t.Fatal("LoadForDatabase() error = nil, want DATABASE_URL error")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/vulnconsole")
	if _, err := LoadForDatabase(); err != nil {
		t.Fatalf("LoadForDatabase() error = %v", err)
	}
}

func TestLoad_RejectsViewStateTTLShorterThanCentralTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("CENTRAL_ENDPOINT", "https://central.example.com")
	t.Setenv("CENTRAL_TIMEOUT", "30s")
	t.Setenv("VIEW_STATE_TTL", "10s")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want VIEW_STATE_TTL error")
	}

	t.Setenv("VIEW_STATE_TTL", "30s")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
