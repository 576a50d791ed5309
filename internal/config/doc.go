// Package config handles configuration loading for voxmesh-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from VOXMESH_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/voxmesh/gateway.yaml
//  3. ~/.config/voxmesh/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	pipeline:
//	  openai_api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME} or $VAR_NAME
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	presence:
//	  speaking_cooldown: "2s"
//	pipeline:
//	  timeout: "60s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # WebSocket and HTTP API
//
// Database:
//
//	database:
//	  path: "/var/lib/voxmesh/gateway.db"
//
// Object storage (S3 or local filesystem):
//
//	storage:
//	  s3:
//	    enabled: true
//	    bucket: "voxmesh-uploads"
//	    region: "us-east-1"
//	    access_key_id: "${AWS_ACCESS_KEY_ID}"
//	    secret_access_key: "${AWS_SECRET_ACCESS_KEY}"
//	  local_dir: "uploads"        # fallback when s3 is disabled
//
// Response cache:
//
//	cache:
//	  size: 1024
//	  ttl: "5m"
//
// Speech pipeline:
//
//	pipeline:
//	  openai_api_key: "${OPENAI_API_KEY}"
//	  transcription_model: "whisper-1"
//	  chat_model: "gpt-4o-mini"
//	  speech_model: "tts-1"
//	  speech_voice: "alloy"
//	  timeout: "60s"
//
// Presence timing:
//
//	presence:
//	  speaking_cooldown: "2s"
//
// Background jobs:
//
//	jobs:
//	  workers: 2
//	  queue_size: 64
//	  cleanup_interval: "1h"
//	  cleanup_max_age: "168h"
//	  health_interval: "5m"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Validation
//
// Load() validates:
//
//   - Required server and database fields
//   - S3 bucket and region when S3 is enabled
//   - Duration format validity
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
