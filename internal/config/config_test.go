// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

storage:
  s3:
    enabled: true
    bucket: "voxmesh-uploads"
    region: "us-east-1"

cache:
  size: 512
  ttl: "10m"

pipeline:
  openai_api_key: "sk-test"
  transcription_model: "whisper-1"
  chat_model: "gpt-4o-mini"
  timeout: "90s"

presence:
  speaking_cooldown: "3s"

jobs:
  workers: 4
  queue_size: 128
  cleanup_interval: "30m"
  cleanup_max_age: "168h"
  health_interval: "1m"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}

	if !cfg.Storage.S3.Enabled {
		t.Error("Storage.S3.Enabled = false, want true")
	}
	if cfg.Storage.S3.Bucket != "voxmesh-uploads" {
		t.Errorf("Storage.S3.Bucket = %q, want %q", cfg.Storage.S3.Bucket, "voxmesh-uploads")
	}

	if cfg.Cache.Size != 512 {
		t.Errorf("Cache.Size = %d, want 512", cfg.Cache.Size)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, 10*time.Minute)
	}

	if cfg.Pipeline.OpenAIAPIKey != "sk-test" {
		t.Errorf("Pipeline.OpenAIAPIKey = %q, want %q", cfg.Pipeline.OpenAIAPIKey, "sk-test")
	}
	if cfg.Pipeline.Timeout != 90*time.Second {
		t.Errorf("Pipeline.Timeout = %v, want %v", cfg.Pipeline.Timeout, 90*time.Second)
	}

	if cfg.Presence.SpeakingCooldown != 3*time.Second {
		t.Errorf("Presence.SpeakingCooldown = %v, want %v", cfg.Presence.SpeakingCooldown, 3*time.Second)
	}

	if cfg.Jobs.Workers != 4 {
		t.Errorf("Jobs.Workers = %d, want 4", cfg.Jobs.Workers)
	}
	if cfg.Jobs.CleanupInterval != 30*time.Minute {
		t.Errorf("Jobs.CleanupInterval = %v, want %v", cfg.Jobs.CleanupInterval, 30*time.Minute)
	}
	if cfg.Jobs.CleanupMaxAge != 168*time.Hour {
		t.Errorf("Jobs.CleanupMaxAge = %v, want %v", cfg.Jobs.CleanupMaxAge, 168*time.Hour)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cache.Size != 1024 {
		t.Errorf("Cache.Size default = %d, want 1024", cfg.Cache.Size)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL default = %v, want %v", cfg.Cache.TTL, 5*time.Minute)
	}
	if cfg.Pipeline.Timeout != 60*time.Second {
		t.Errorf("Pipeline.Timeout default = %v, want %v", cfg.Pipeline.Timeout, 60*time.Second)
	}
	if cfg.Presence.SpeakingCooldown != 2*time.Second {
		t.Errorf("Presence.SpeakingCooldown default = %v, want %v", cfg.Presence.SpeakingCooldown, 2*time.Second)
	}
	if cfg.Jobs.Workers != 2 {
		t.Errorf("Jobs.Workers default = %d, want 2", cfg.Jobs.Workers)
	}
	if cfg.Jobs.QueueSize != 64 {
		t.Errorf("Jobs.QueueSize default = %d, want 64", cfg.Jobs.QueueSize)
	}
	if cfg.Jobs.CleanupInterval != time.Hour {
		t.Errorf("Jobs.CleanupInterval default = %v, want %v", cfg.Jobs.CleanupInterval, time.Hour)
	}
	if cfg.Jobs.HealthInterval != 5*time.Minute {
		t.Errorf("Jobs.HealthInterval default = %v, want %v", cfg.Jobs.HealthInterval, 5*time.Minute)
	}
	if cfg.Storage.LocalDir != "uploads" {
		t.Errorf("Storage.LocalDir default = %q, want %q", cfg.Storage.LocalDir, "uploads")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path default = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("VOXMESH_TEST_API_KEY", "sk-from-env")
	t.Setenv("VOXMESH_TEST_BUCKET", "env-bucket")

	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"

storage:
  s3:
    enabled: true
    bucket: "${VOXMESH_TEST_BUCKET}"
    region: "us-west-2"

pipeline:
  openai_api_key: "${VOXMESH_TEST_API_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.OpenAIAPIKey != "sk-from-env" {
		t.Errorf("Pipeline.OpenAIAPIKey = %q, want %q", cfg.Pipeline.OpenAIAPIKey, "sk-from-env")
	}
	if cfg.Storage.S3.Bucket != "env-bucket" {
		t.Errorf("Storage.S3.Bucket = %q, want %q", cfg.Storage.S3.Bucket, "env-bucket")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"

pipeline:
  openai_api_key: "${VOXMESH_TEST_DEFINITELY_UNSET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.OpenAIAPIKey != "" {
		t.Errorf("Pipeline.OpenAIAPIKey = %q, want empty", cfg.Pipeline.OpenAIAPIKey)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: "./test.db"

pipeline:
  timeout: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "pipeline.timeout") {
		t.Errorf("expected error to name the field, got %v", err)
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http_addr",
			content: `
database:
  path: "./test.db"
`,
			wantErr: "server.http_addr",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: "localhost:8080"
`,
			wantErr: "database.path",
		},
		{
			name: "s3 enabled without bucket",
			content: `
server:
  http_addr: "localhost:8080"
database:
  path: "./test.db"
storage:
  s3:
    enabled: true
    region: "us-east-1"
`,
			wantErr: "storage.s3.bucket",
		},
		{
			name: "s3 enabled without region",
			content: `
server:
  http_addr: "localhost:8080"
database:
  path: "./test.db"
storage:
  s3:
    enabled: true
    bucket: "some-bucket"
`,
			wantErr: "storage.s3.region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)
			_, err := Load(configPath)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "server: [not: valid: yaml")
	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
