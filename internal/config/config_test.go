package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CABINET_HTTP_ADDR", "HTTP_ADDR",
		"CABINET_GRPC_HOST", "GRPC_HOST",
		"CABINET_GRPC_PORT", "GRPC_PORT",
		"CABINET_GRPC_ADDR", "GRPC_ADDR",
		"CABINET_DATABASE_URL", "DATABASE_URL",
		"CABINET_CALENDAR_LOCATION",
		"CABINET_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"CABINET_SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT",
		"CABINET_LOG_LEVEL", "LOG_LEVEL",
		"CABINET_HTTP_REQUEST_TIMEOUT", "CABINET_HTTP_RATE_LIMIT",
		"CABINET_DATABASE_AUTO_MIGRATE", "CABINET_DATABASE_CONN_MAX_LIFETIME",
		"CABINET_DATABASE_SLOW_QUERY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr() != "0.0.0.0:50051" {
		t.Fatalf("GRPCAddr = %q", cfg.GRPCAddr())
	}
	if cfg.HTTPRequestTimeout != 10*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("timeouts = %v / %v", cfg.HTTPRequestTimeout, cfg.ShutdownTimeout)
	}
	if cfg.HTTPRateLimit != 20 || cfg.HTTPRateBurst != 40 {
		t.Fatalf("rate = %v / %d", cfg.HTTPRateLimit, cfg.HTTPRateBurst)
	}
	if cfg.DBConnMaxLifetime != 30*time.Minute || cfg.DBConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("pool durations = %v / %v", cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	}
	if cfg.DBSlowQuery != 200*time.Millisecond {
		t.Fatalf("DBSlowQuery = %v", cfg.DBSlowQuery)
	}
	if !cfg.DBAutoMigrate {
		t.Fatalf("DBAutoMigrate = false")
	}
	if cfg.Location != time.Local {
		t.Fatalf("Location = %v, want Local", cfg.Location)
	}
	if cfg.OTelEnabled || cfg.OTelSampleRatio != 1 {
		t.Fatalf("otel = %v / %v", cfg.OTelEnabled, cfg.OTelSampleRatio)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CABINET_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("CABINET_GRPC_ADDR", "localhost:6000")
	t.Setenv("CABINET_CALENDAR_LOCATION", "UTC")
	t.Setenv("CABINET_HTTP_RATE_LIMIT", "0")
	t.Setenv("CABINET_DATABASE_AUTO_MIGRATE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9090" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr() != "localhost:6000" {
		t.Fatalf("GRPCAddr = %q", cfg.GRPCAddr())
	}
	if cfg.Location != time.UTC {
		t.Fatalf("Location = %v", cfg.Location)
	}
	if cfg.HTTPRateLimit != 0 {
		t.Fatalf("HTTPRateLimit = %v", cfg.HTTPRateLimit)
	}
	if cfg.DBAutoMigrate {
		t.Fatalf("DBAutoMigrate = true")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CABINET_SHUTDOWN_TIMEOUT":           "soon",
		"CABINET_HTTP_REQUEST_TIMEOUT":       "10",
		"CABINET_DATABASE_CONN_MAX_LIFETIME": "forever",
		"CABINET_CALENDAR_LOCATION":          "Mars/Olympus_Mons",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
