// Package config loads and validates the campaign configuration
// record: worker parallelism, target rate, timeouts, the variable
// registry bootstrap, and the ordered scenario list.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the campaign configuration record.
type Config struct {
	Parallel     int           `yaml:"parallel"`
	CallRate     int64         `yaml:"call_rate"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
	Duration     time.Duration `yaml:"duration"`
	LogRequests  bool          `yaml:"log_requests"`
	LogResponses bool          `yaml:"log_responses"`
	Protocol     string        `yaml:"protocol"`
	Address      string        `yaml:"address"`
	Dictionaries []string      `yaml:"dictionaries"`
	Globals      GlobalsConfig `yaml:"globals"`
	Scenarios    []ScenarioSpec `yaml:"scenarios"`

	Reporting ReportingConfig `yaml:"reporting"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// GlobalsConfig bootstraps the Variable Registry.
type GlobalsConfig struct {
	Variables []VariableSpec `yaml:"variables"`
}

// VariableSpec configures one named variable generator.
type VariableSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Min  int64  `yaml:"min"`
	Max  int64  `yaml:"max"`
	Step int64  `yaml:"step"`
}

// ScenarioSpec configures one Scenario.
type ScenarioSpec struct {
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Command     string          `yaml:"command"`
	Application string          `yaml:"application"`
	Attributes  []AttributeSpec `yaml:"attributes"`
}

// AttributeSpec configures one attribute's value: a scalar template
// string, or (when Entries is non-empty) a nested Grouped value.
type AttributeSpec struct {
	Name    string          `yaml:"name"`
	Value   string          `yaml:"value,omitempty"`
	Entries []AttributeSpec `yaml:"entries,omitempty"`
}

// ReportingConfig controls campaign report persistence.
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
	Format    string `yaml:"format"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// DefaultConfig returns a default campaign configuration.
func DefaultConfig() *Config {
	return &Config{
		Parallel:     1,
		CallRate:     100,
		CallTimeout:  5 * time.Second,
		Duration:     60 * time.Second,
		LogRequests:  false,
		LogResponses: false,
		Protocol:     "Diameter",
		Reporting: ReportingConfig{
			OutputDir: "./reports",
			KeepLastN: 50,
			Format:    "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}

// Load loads configuration from a YAML file, expanding ${VAR}
// environment references before parsing. Missing path resolves to
// config.yaml in the current directory; a missing file yields the
// default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for structural consistency.
func (c *Config) Validate() error {
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1")
	}
	if c.CallRate < 1 {
		return fmt.Errorf("call_rate must be at least 1")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Protocol != "Diameter" && c.Protocol != "HTTP2" {
		return fmt.Errorf("protocol must be Diameter or HTTP2, got %q", c.Protocol)
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("scenarios must not be empty")
	}

	seen := make(map[string]bool, len(c.Globals.Variables))
	for _, v := range c.Globals.Variables {
		if v.Name == "" {
			return fmt.Errorf("globals.variables: entry missing name")
		}
		if seen[v.Name] {
			return fmt.Errorf("globals.variables: duplicate name %q", v.Name)
		}
		seen[v.Name] = true
	}

	for _, s := range c.Scenarios {
		if s.Type != "Init" && s.Type != "Repeating" {
			return fmt.Errorf("scenarios: %q has invalid type %q", s.Name, s.Type)
		}
		if s.Command == "" {
			return fmt.Errorf("scenarios: %q missing command", s.Name)
		}
		if s.Application == "" {
			return fmt.Errorf("scenarios: %q missing application", s.Name)
		}
	}

	return nil
}
