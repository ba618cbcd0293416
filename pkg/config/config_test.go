package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsAndSubstitutesEnv(t *testing.T) {
	os.Setenv("SIGNUM_TEST_ENV", "staging")
	defer os.Unsetenv("SIGNUM_TEST_ENV")

	dir := t.TempDir()
	path := filepath.Join(dir, "signum.yaml")
	content := []byte("environment: ${SIGNUM_TEST_ENV}\nretry:\n  max_attempts: 3\n  backoff: 500ms\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Fatalf("expected environment substituted to staging, got %q", cfg.Environment)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected max_attempts 3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Backoff.AsDuration() != 500*time.Millisecond {
		t.Fatalf("expected backoff 500ms, got %v", cfg.Retry.Backoff.AsDuration())
	}
	if cfg.Monitoring.ListenAddr != ":9090" {
		t.Fatalf("expected default listen_addr, got %q", cfg.Monitoring.ListenAddr)
	}
	if cfg.Monitoring.MetricsPath != "/metrics" || cfg.Monitoring.HealthPath != "/healthz" {
		t.Fatalf("expected default monitoring paths, got %+v", cfg.Monitoring)
	}
}

func TestLoadLeavesUnsetEnvVarPlaceholderUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signum.yaml")
	if err := os.WriteFile(path, []byte("environment: ${SIGNUM_DOES_NOT_EXIST}\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if cfg.Environment != "${SIGNUM_DOES_NOT_EXIST}" {
		t.Fatalf("expected unset var placeholder left untouched, got %q", cfg.Environment)
	}
}

func TestValidateRejectsZeroMaxAttempts(t *testing.T) {
	cfg := &CoordinatorConfig{Retry: RetrySettings{MaxAttempts: 0}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_attempts < 1")
	}
}

func TestValidateRequiresListenAddrWhenMonitoringEnabled(t *testing.T) {
	cfg := &CoordinatorConfig{Retry: RetrySettings{MaxAttempts: 1}, Monitoring: MonitorSettings{Enabled: true}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for monitoring enabled with no listen_addr")
	}
}

func TestDurationRoundTripsThroughYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signum.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_attempts: 1\n  backoff: 1m30s\n"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if cfg.Retry.Backoff.AsDuration() != 90*time.Second {
		t.Fatalf("expected 90s backoff, got %v", cfg.Retry.Backoff.AsDuration())
	}
}
