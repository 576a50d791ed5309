// ABOUTME: Configuration loading and parsing for voxmesh-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete voxmesh-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Presence PresenceConfig `yaml:"presence"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds object storage configuration. When S3 is not
// enabled, uploads land in LocalDir.
type StorageConfig struct {
	S3       S3Config `yaml:"s3"`
	LocalDir string   `yaml:"local_dir"`
}

// S3Config holds S3 bucket and credential configuration
type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// CacheConfig holds the read-through cache configuration
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"-"`

	TTLRaw string `yaml:"ttl"`
}

// PipelineConfig holds speech pipeline configuration
type PipelineConfig struct {
	OpenAIAPIKey       string        `yaml:"openai_api_key"`
	TranscriptionModel string        `yaml:"transcription_model"`
	ChatModel          string        `yaml:"chat_model"`
	SpeechModel        string        `yaml:"speech_model"`
	SpeechVoice        string        `yaml:"speech_voice"`
	Timeout            time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"`
}

// PresenceConfig holds presence timing configuration
type PresenceConfig struct {
	SpeakingCooldown time.Duration `yaml:"-"`

	SpeakingCooldownRaw string `yaml:"speaking_cooldown"`
}

// JobsConfig holds background job queue configuration
type JobsConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`

	CleanupInterval time.Duration `yaml:"-"`
	CleanupMaxAge   time.Duration `yaml:"-"`
	HealthInterval  time.Duration `yaml:"-"`

	CleanupIntervalRaw string `yaml:"cleanup_interval"`
	CleanupMaxAgeRaw   string `yaml:"cleanup_max_age"`
	HealthIntervalRaw  string `yaml:"health_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
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

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in defaults for optional fields.
func (c *Config) applyDefaults() {
	if c.Cache.Size <= 0 {
		c.Cache.Size = 1024
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Pipeline.Timeout <= 0 {
		c.Pipeline.Timeout = 60 * time.Second
	}
	if c.Presence.SpeakingCooldown <= 0 {
		c.Presence.SpeakingCooldown = 2 * time.Second
	}
	if c.Jobs.Workers <= 0 {
		c.Jobs.Workers = 2
	}
	if c.Jobs.QueueSize <= 0 {
		c.Jobs.QueueSize = 64
	}
	if c.Jobs.CleanupInterval <= 0 {
		c.Jobs.CleanupInterval = time.Hour
	}
	if c.Jobs.CleanupMaxAge <= 0 {
		c.Jobs.CleanupMaxAge = 30 * 24 * time.Hour
	}
	if c.Jobs.HealthInterval <= 0 {
		c.Jobs.HealthInterval = 5 * time.Minute
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "uploads"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.S3.Enabled {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when s3 is enabled")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when s3 is enabled")
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{cfg.Cache.TTLRaw, &cfg.Cache.TTL, "cache.ttl"},
		{cfg.Pipeline.TimeoutRaw, &cfg.Pipeline.Timeout, "pipeline.timeout"},
		{cfg.Presence.SpeakingCooldownRaw, &cfg.Presence.SpeakingCooldown, "presence.speaking_cooldown"},
		{cfg.Jobs.CleanupIntervalRaw, &cfg.Jobs.CleanupInterval, "jobs.cleanup_interval"},
		{cfg.Jobs.CleanupMaxAgeRaw, &cfg.Jobs.CleanupMaxAge, "jobs.cleanup_max_age"},
		{cfg.Jobs.HealthIntervalRaw, &cfg.Jobs.HealthInterval, "jobs.health_interval"},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
