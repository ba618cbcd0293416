// Copyright 2025 Certen Protocol
//
// Package config loads the ambient settings a Coordinator is run
// with from YAML, in the style of the teacher's
// pkg/config.AnchorConfig: nested yaml-tagged structs, environment
// variable substitution, and an applyDefaults pass.
//
// The ordering of FactorSourceKind is deliberately NOT configurable
// here: it is a domain constant exposed as factors.KindOrder, per the
// core spec's explicit design note that it must stay a fixed,
// readable enumeration rather than a runtime setting.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML unmarshaling, identical in
// shape to the teacher's config.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// AsDuration returns the time.Duration value.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// CoordinatorConfig holds the ambient settings for running a
// Coordinator: retry policy for driver failures, and the exposed
// metrics/health surface.
type CoordinatorConfig struct {
	Environment string          `yaml:"environment"`
	Retry       RetrySettings   `yaml:"retry"`
	Monitoring  MonitorSettings `yaml:"monitoring"`
}

// RetrySettings bounds how many driver calls in total (the first
// attempt plus retries) one dispatch may take after DriverFailed
// outcomes before the coordinator gives up and treats the attempted
// sources as skipped (§7 recoverable driver errors).
type RetrySettings struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Backoff     Duration `yaml:"backoff"`
}

// MonitorSettings configures the optional Prometheus/health surface
// a host binary (cmd/signumd) exposes around the core.
type MonitorSettings struct {
	Enabled     bool   `yaml:"enabled"`
	ListenAddr  string `yaml:"listen_addr"`
	MetricsPath string `yaml:"metrics_path"`
	HealthPath  string `yaml:"health_path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable
// values, leaving unset variables' placeholders untouched.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return match
	})
}

// Load reads and parses a CoordinatorConfig from a YAML file, with
// ${VAR_NAME} environment substitution applied to the raw bytes
// before unmarshaling.
func Load(path string) (*CoordinatorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg CoordinatorConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *CoordinatorConfig) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 1
	}
	if c.Retry.Backoff == 0 {
		c.Retry.Backoff = Duration(2 * time.Second)
	}
	if c.Monitoring.ListenAddr == "" {
		c.Monitoring.ListenAddr = ":9090"
	}
	if c.Monitoring.MetricsPath == "" {
		c.Monitoring.MetricsPath = "/metrics"
	}
	if c.Monitoring.HealthPath == "" {
		c.Monitoring.HealthPath = "/healthz"
	}
}

// Validate rejects configurations that cannot safely drive a
// Coordinator, mirroring the teacher's ValidateAnchorConfig pass.
func (c *CoordinatorConfig) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Monitoring.Enabled && c.Monitoring.ListenAddr == "" {
		return fmt.Errorf("config: monitoring.listen_addr required when monitoring is enabled")
	}
	return nil
}
