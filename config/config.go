// Package config holds the runtime configuration for a ResearchMesh
// deployment. Values come from defaults, an optional YAML file and finally
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config configures the session manager, coordination bus and ambient
// services of one ResearchMesh process.
type Config struct {
	// SessionDir is the directory holding session records and checkpoints.
	SessionDir string `yaml:"session_dir"`
	// MemoryDir is the directory holding the research memory bank.
	MemoryDir string `yaml:"memory_dir"`
	// QueueCapacity bounds the coordination bus delivery queue.
	QueueCapacity int `yaml:"queue_capacity"`
	// MessageTimeoutSeconds is the advisory response deadline attached to
	// outgoing request messages.
	MessageTimeoutSeconds int `yaml:"message_timeout_seconds"`
	// MaxPapersPerSearch caps how many papers a search worker should fetch.
	// Advisory for workers; the core does not enforce it.
	MaxPapersPerSearch int `yaml:"max_papers_per_search"`
	// EnableMemoryBank toggles the research memory bank.
	EnableMemoryBank bool `yaml:"enable_memory_bank"`
	// EnableMetrics toggles the in-process metrics tracker.
	EnableMetrics bool `yaml:"enable_metrics"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		SessionDir:            "./research_sessions",
		MemoryDir:             "./memory_bank",
		QueueCapacity:         1024,
		MessageTimeoutSeconds: 300,
		MaxPapersPerSearch:    50,
		EnableMemoryBank:      true,
		EnableMetrics:         true,
		LogLevel:              "info",
		LogFormat:             "json",
	}
}

// Load builds a Config from defaults, the YAML file at path (missing file is
// not an error; empty path skips the file entirely) and environment
// overrides, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RESEARCHMESH_SESSION_DIR"); v != "" {
		c.SessionDir = v
	}
	if v := os.Getenv("RESEARCHMESH_MEMORY_DIR"); v != "" {
		c.MemoryDir = v
	}
	if v := os.Getenv("RESEARCHMESH_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueCapacity = n
		}
	}
	if v := os.Getenv("RESEARCHMESH_MESSAGE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MessageTimeoutSeconds = n
		}
	}
	if v := os.Getenv("RESEARCHMESH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("RESEARCHMESH_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

func (c *Config) validate() error {
	if c.SessionDir == "" {
		return fmt.Errorf("config: session_dir is required")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("config: queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.MessageTimeoutSeconds <= 0 {
		return fmt.Errorf("config: message_timeout_seconds must be positive, got %d", c.MessageTimeoutSeconds)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}
