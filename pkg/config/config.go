package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Orchestrator  OrchestratorConfig  `yaml:"orchestrator"`
	Health        HealthConfig        `yaml:"health"`
	Verifier      VerifierConfig      `yaml:"verifier"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// OrchestratorConfig contains task orchestration configuration
type OrchestratorConfig struct {
	// EstimatedVelocity is the historical rate of tasks resolved per session
	EstimatedVelocity float64 `yaml:"estimated_velocity"`
	// MaxTasksPerSession bounds a single monitored run
	MaxTasksPerSession int `yaml:"max_tasks_per_session"`
	// StallThreshold is the recent-friction severity sum that stalls a run
	StallThreshold int `yaml:"stall_threshold"`
	// FrictionWindow is the trailing window for stall evaluation
	FrictionWindow string `yaml:"friction_window"`
	// AutoSkipOnFailure records failed tasks and continues instead of aborting
	AutoSkipOnFailure bool `yaml:"auto_skip_on_failure"`
}

// HealthConfig contains health monitoring configuration
type HealthConfig struct {
	// MaxHistory caps the per-document snapshot history (oldest evicted)
	MaxHistory int `yaml:"max_history"`
	// TrendWindowDays is the trailing window for trend analysis
	TrendWindowDays int `yaml:"trend_window_days"`
}

// VerifierConfig contains reference verification configuration
type VerifierConfig struct {
	// MaxEvidenceRecords caps accumulated tool-call evidence per session
	MaxEvidenceRecords int `yaml:"max_evidence_records"`
}

// ObservabilityConfig contains observability configuration
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Provider     string  `yaml:"provider"` // "otlp"
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Provider     string `yaml:"provider"` // "prometheus"
	Port         int    `yaml:"port"`
	PushInterval string `yaml:"push_interval,omitempty"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text"
	Output string `yaml:"output"` // "stdout", "file"
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	config.overrideFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads configuration from a file or returns default config
func LoadOrDefault(path string) *Config {
	config, err := Load(path)
	if err != nil {
		config = Default()
	}
	return config
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			EstimatedVelocity:  5,
			MaxTasksPerSession: 10,
			StallThreshold:     3,
			FrictionWindow:     "60s",
			AutoSkipOnFailure:  true,
		},
		Health: HealthConfig{
			MaxHistory:      100,
			TrendWindowDays: 30,
		},
		Verifier: VerifierConfig{
			MaxEvidenceRecords: 1000,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      true,
				Provider:     "otlp",
				Endpoint:     "localhost:4317",
				SamplingRate: 1.0,
				Insecure:     true,
			},
			Metrics: MetricsConfig{
				Enabled:      true,
				Provider:     "prometheus",
				Port:         2223,
				PushInterval: "10s",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
	}
}

// applyDefaults applies default values to missing fields
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Orchestrator.EstimatedVelocity == 0 {
		c.Orchestrator.EstimatedVelocity = defaults.Orchestrator.EstimatedVelocity
	}
	if c.Orchestrator.MaxTasksPerSession == 0 {
		c.Orchestrator.MaxTasksPerSession = defaults.Orchestrator.MaxTasksPerSession
	}
	if c.Orchestrator.StallThreshold == 0 {
		c.Orchestrator.StallThreshold = defaults.Orchestrator.StallThreshold
	}
	if c.Orchestrator.FrictionWindow == "" {
		c.Orchestrator.FrictionWindow = defaults.Orchestrator.FrictionWindow
	}

	if c.Health.MaxHistory == 0 {
		c.Health.MaxHistory = defaults.Health.MaxHistory
	}
	if c.Health.TrendWindowDays == 0 {
		c.Health.TrendWindowDays = defaults.Health.TrendWindowDays
	}

	if c.Verifier.MaxEvidenceRecords == 0 {
		c.Verifier.MaxEvidenceRecords = defaults.Verifier.MaxEvidenceRecords
	}
}

// overrideFromEnv overrides configuration from environment variables
func (c *Config) overrideFromEnv() {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		c.Observability.Tracing.Endpoint = endpoint
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		_, err := fmt.Sscanf(port, "%d", &c.Observability.Metrics.Port)
		if err != nil {
			log.Printf("Invalid METRICS_PORT value: %s, using default: %d", port, c.Observability.Metrics.Port)
		}
	}
	if velocity := os.Getenv("REFINERY_VELOCITY"); velocity != "" {
		_, err := fmt.Sscanf(velocity, "%f", &c.Orchestrator.EstimatedVelocity)
		if err != nil {
			log.Printf("Invalid REFINERY_VELOCITY value: %s, using default: %v", velocity, c.Orchestrator.EstimatedVelocity)
		}
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Orchestrator.EstimatedVelocity <= 0 {
		return fmt.Errorf("orchestrator estimated_velocity must be positive")
	}
	if c.Orchestrator.MaxTasksPerSession < 1 {
		return fmt.Errorf("orchestrator max_tasks_per_session must be at least 1")
	}
	if c.Orchestrator.StallThreshold < 1 {
		return fmt.Errorf("orchestrator stall_threshold must be at least 1")
	}
	if _, err := time.ParseDuration(c.Orchestrator.FrictionWindow); err != nil {
		return fmt.Errorf("invalid orchestrator friction_window: %w", err)
	}

	if c.Health.MaxHistory < 1 {
		return fmt.Errorf("health max_history must be at least 1")
	}
	if c.Health.TrendWindowDays < 1 {
		return fmt.Errorf("health trend_window_days must be at least 1")
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FrictionWindowDuration parses the configured friction window
func (c *Config) FrictionWindowDuration() time.Duration {
	d, err := time.ParseDuration(c.Orchestrator.FrictionWindow)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
