// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and validation

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
	path := filepath.Join(t.TempDir(), "hub.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
  rtmp_addr: "0.0.0.0:1935"

gateways:
  heartbeat_interval: "30s"
  heartbeat_timeout: "90s"

relay:
  send_buffer: 128
  read_limit: 524288

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Server.RTMPAddr != "0.0.0.0:1935" {
		t.Errorf("RTMPAddr = %q, want %q", cfg.Server.RTMPAddr, "0.0.0.0:1935")
	}
	if cfg.Gateways.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.Gateways.HeartbeatInterval)
	}
	if cfg.Gateways.HeartbeatTimeout != 90*time.Second {
		t.Errorf("HeartbeatTimeout = %v, want 90s", cfg.Gateways.HeartbeatTimeout)
	}
	if cfg.Relay.SendBuffer != 128 {
		t.Errorf("SendBuffer = %d, want 128", cfg.Relay.SendBuffer)
	}
	if cfg.Relay.ReadLimit != 524288 {
		t.Errorf("ReadLimit = %d, want 524288", cfg.Relay.ReadLimit)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", cfg.Logging)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
  rtmp_addr: "localhost:1935"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Relay.SendBuffer != DefaultSendBuffer {
		t.Errorf("SendBuffer = %d, want default %d", cfg.Relay.SendBuffer, DefaultSendBuffer)
	}
	if cfg.Relay.ReadLimit != DefaultReadLimit {
		t.Errorf("ReadLimit = %d, want default %d", cfg.Relay.ReadLimit, DefaultReadLimit)
	}
	if cfg.Gateways.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("HeartbeatInterval = %v, want default %v", cfg.Gateways.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.Gateways.HeartbeatTimeout != DefaultHeartbeatTimeout {
		t.Errorf("HeartbeatTimeout = %v, want default %v", cfg.Gateways.HeartbeatTimeout, DefaultHeartbeatTimeout)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("HUB_HTTP_ADDR", "10.1.2.3:9090")

	path := writeConfig(t, `
server:
  http_addr: "${HUB_HTTP_ADDR}"
  rtmp_addr: "localhost:1935"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "10.1.2.3:9090" {
		t.Errorf("HTTPAddr = %q, want expanded env value", cfg.Server.HTTPAddr)
	}
}

func TestLoad_UnsetEnvVarExpandsToEmpty(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "${DEFINITELY_NOT_SET_HUB_VAR}"
  rtmp_addr: "localhost:1935"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for empty http_addr")
	}
	if !strings.Contains(err.Error(), "http_addr") {
		t.Errorf("error = %v, want mention of http_addr", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
  rtmp_addr: "localhost:1935"

gateways:
  heartbeat_interval: "not-a-duration"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "heartbeat_interval") {
		t.Errorf("error = %v, want mention of heartbeat_interval", err)
	}
}

func TestLoad_TimeoutShorterThanInterval(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
  rtmp_addr: "localhost:1935"

gateways:
  heartbeat_interval: "1m"
  heartbeat_timeout: "10s"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for timeout < interval")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: valid")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
