package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["http://localhost:5173"]
telemetry:
  from_navigation_ui: true
  location_engine: replay
  debug: true
sink:
  kind: redis
  redis:
    addr: "redis:6379"
    channel: "nav:events"
privacy:
  mask_session_ids: true
  coordinate_precision: 3
mock:
  enabled: true
  scenario: reroute
  tick: 250ms
history:
  dir: /var/lib/nav-telemetry
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Telemetry.LocationEngine != "replay" || !cfg.Telemetry.Debug {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
	if cfg.Sink.Kind != SinkRedis || cfg.Sink.Redis.Addr != "redis:6379" {
		t.Errorf("Sink = %+v", cfg.Sink)
	}
	if !cfg.Privacy.MaskSessionIDs || cfg.Privacy.CoordinatePrecision != 3 {
		t.Errorf("Privacy = %+v", cfg.Privacy)
	}
	if cfg.Mock.Scenario != "reroute" || cfg.Mock.Tick != 250*time.Millisecond {
		t.Errorf("Mock = %+v", cfg.Mock)
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.Telemetry.BufferSize != 20 {
		t.Errorf("Telemetry.BufferSize = %d, want default 20", cfg.Telemetry.BufferSize)
	}
	if cfg.Sink.Redis.Keep != 100 {
		t.Errorf("Sink.Redis.Keep = %d, want default 100", cfg.Sink.Redis.Keep)
	}
	if !cfg.Mock.Loop {
		t.Error("Mock.Loop should keep default true")
	}
	if !cfg.History.Enabled || cfg.History.Dir != "/var/lib/nav-telemetry" {
		t.Errorf("History = %+v", cfg.History)
	}
	if got := cfg.SDKIdentifier(); got != SDKIdentifierUI {
		t.Errorf("SDKIdentifier() = %q, want %q", got, SDKIdentifierUI)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() on missing file should return error")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want default %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Sink.Kind != SinkLog {
		t.Errorf("Sink.Kind = %q, want default %q", cfg.Sink.Kind, SinkLog)
	}
	if got := cfg.SDKIdentifier(); got != SDKIdentifierCore {
		t.Errorf("SDKIdentifier() = %q, want %q", got, SDKIdentifierCore)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, ":::not valid yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() with invalid YAML should return error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero buffer", func(c *Config) { c.Telemetry.BufferSize = 0 }, "buffer_size"},
		{"no engine", func(c *Config) { c.Telemetry.LocationEngine = "" }, "location_engine"},
		{"unknown sink", func(c *Config) { c.Sink.Kind = "kafka" }, "sink.kind"},
		{"redis without addr", func(c *Config) {
			c.Sink.Kind = SinkRedis
			c.Sink.Redis.Addr = ""
		}, "sink.redis"},
		{"precision", func(c *Config) { c.Privacy.CoordinatePrecision = -1 }, "coordinate_precision"},
		{"unknown scenario", func(c *Config) {
			c.Mock.Enabled = true
			c.Mock.Scenario = "teleport"
		}, "mock.scenario"},
		{"scenario ignored when disabled", func(c *Config) { c.Mock.Scenario = "teleport" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "telemetry:\n  buffer_size: -3\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should validate the config")
	}
}

func TestNewPrivacyFilter(t *testing.T) {
	pc := PrivacyConfig{
		MaskSessionIDs:      true,
		CoordinatePrecision: 4,
		DropScreenshots:     true,
	}

	pf := pc.NewPrivacyFilter()

	if !pf.MaskSessionIDs {
		t.Error("MaskSessionIDs not copied")
	}
	if pf.CoordinatePrecision != 4 {
		t.Errorf("CoordinatePrecision = %d, want 4", pf.CoordinatePrecision)
	}
	if !pf.DropScreenshots {
		t.Error("DropScreenshots not copied")
	}
	if pf.DropLocationTrails {
		t.Error("DropLocationTrails should be false")
	}
}

func TestNewPrivacyFilterZeroValue(t *testing.T) {
	pc := PrivacyConfig{}
	if !pc.NewPrivacyFilter().IsNoop() {
		t.Error("zero-value PrivacyConfig should produce a noop filter")
	}
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if len(tok) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("token length = %d, want 32", len(tok))
	}

	tok2, _ := GenerateToken()
	if tok == tok2 {
		t.Error("two generated tokens should not be identical")
	}
}

func TestDiffNoChanges(t *testing.T) {
	if changes := Diff(defaultConfig(), defaultConfig()); len(changes) != 0 {
		t.Errorf("Diff of identical configs = %v, want empty", changes)
	}
}

func TestDiffDetectsChanges(t *testing.T) {
	old := defaultConfig()
	new := defaultConfig()
	new.Privacy.MaskSessionIDs = true
	new.Privacy.CoordinatePrecision = 2
	new.Server.AllowedOrigins = []string{"http://example.com"}

	found := map[string]bool{}
	for _, c := range Diff(old, new) {
		found[c] = true
	}

	want := []string{
		"privacy.mask_session_ids: false → true",
		"privacy.coordinate_precision: 0 → 2",
		"server.allowed_origins: [] → [http://example.com]",
	}
	for _, w := range want {
		if !found[w] {
			t.Errorf("Missing expected change: %q\nGot: %v", w, Diff(old, new))
		}
	}
}
