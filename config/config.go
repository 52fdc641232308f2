// Package config handles configuration loading for the relay server.
// Configuration is loaded from YAML files with ${VAR} environment variable
// expansion, duration string parsing and sensible defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete relay server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Relay      RelayConfig      `yaml:"relay"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Agents     []AgentConfig    `yaml:"agents"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	AuthToken string `yaml:"auth_token"`

	ReadTimeout  time.Duration `yaml:"-"`
	WriteTimeout time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	ReadTimeoutRaw  string `yaml:"read_timeout"`
	WriteTimeoutRaw string `yaml:"write_timeout"`
}

// RelayConfig holds dispatch behavior settings.
type RelayConfig struct {
	DefaultAgent         string `yaml:"default_agent"`
	ContextWindow        int    `yaml:"context_window"`
	MaxMessagesPerThread int    `yaml:"max_messages_per_thread"`
}

// ClassifierConfig selects and parameterizes the message classifier.
type ClassifierConfig struct {
	// Type is "keyword" or "llm".
	Type string `yaml:"type"`
	// Agent names the registered agent used for delegated classification.
	Agent string       `yaml:"agent"`
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig is one keyword classifier rule. Pattern is a regular
// expression; Keywords are matched case-insensitively as substrings.
type RuleConfig struct {
	Pattern  string   `yaml:"pattern"`
	Keywords []string `yaml:"keywords"`
	Agent    string   `yaml:"agent"`
}

// AgentConfig declares one agent to register at startup.
type AgentConfig struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Provider     string `yaml:"provider"` // "openai", "anthropic", "mock", "remote"
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	Instructions string `yaml:"instructions"`
	// BaseURL and AuthToken apply to remote agents.
	BaseURL   string `yaml:"base_url"`
	AuthToken string `yaml:"auth_token"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded and
// duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ReadTimeoutRaw != "" {
		cfg.Server.ReadTimeout, err = time.ParseDuration(cfg.Server.ReadTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing read_timeout %q: %w", cfg.Server.ReadTimeoutRaw, err)
		}
	}

	if cfg.Server.WriteTimeoutRaw != "" {
		cfg.Server.WriteTimeout, err = time.ParseDuration(cfg.Server.WriteTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing write_timeout %q: %w", cfg.Server.WriteTimeoutRaw, err)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Relay.ContextWindow == 0 {
		c.Relay.ContextWindow = 5
	}
	if c.Classifier.Type == "" {
		c.Classifier.Type = "keyword"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	switch c.Classifier.Type {
	case "keyword":
	case "llm":
		if c.Classifier.Agent == "" {
			return fmt.Errorf("classifier.agent is required when classifier.type is %q", c.Classifier.Type)
		}
	default:
		return fmt.Errorf("classifier.type must be \"keyword\" or \"llm\", got %q", c.Classifier.Type)
	}

	for i, rule := range c.Classifier.Rules {
		if rule.Agent == "" {
			return fmt.Errorf("classifier.rules[%d].agent is required", i)
		}
		if rule.Pattern == "" && len(rule.Keywords) == 0 {
			return fmt.Errorf("classifier.rules[%d] needs a pattern or keywords", i)
		}
		if rule.Pattern != "" {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fmt.Errorf("classifier.rules[%d].pattern: %w", i, err)
			}
		}
	}

	names := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d].name is required", i)
		}
		if names[a.Name] {
			return fmt.Errorf("agents[%d]: duplicate agent name %q", i, a.Name)
		}
		names[a.Name] = true

		switch a.Provider {
		case "openai", "anthropic", "mock":
		case "remote":
			if a.BaseURL == "" {
				return fmt.Errorf("agents[%d].base_url is required for remote agents", i)
			}
		default:
			return fmt.Errorf("agents[%d].provider must be one of openai, anthropic, mock, remote, got %q", i, a.Provider)
		}
	}

	if c.Relay.DefaultAgent != "" && len(c.Agents) > 0 && !names[c.Relay.DefaultAgent] {
		return fmt.Errorf("relay.default_agent %q is not a configured agent", c.Relay.DefaultAgent)
	}

	return nil
}
