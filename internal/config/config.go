package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nav-telemetry/backend/internal/event"
)

// SDK identifiers reported in event payloads.
const (
	SDKIdentifierCore = "nav-telemetry"
	SDKIdentifierUI   = "nav-telemetry-ui"
)

// Sink kinds.
const (
	SinkLog   = "log"
	SinkWS    = "ws"
	SinkRedis = "redis"
)

// Mock scenarios understood by the replay navigator.
var MockScenarios = []string{"steady", "reroute", "replace", "abandon"}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Sink      SinkConfig      `yaml:"sink"`
	Privacy   PrivacyConfig   `yaml:"privacy"`
	Mock      MockConfig      `yaml:"mock"`
	History   HistoryConfig   `yaml:"history"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	AuthToken      string        `yaml:"auth_token"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxConnections int           `yaml:"max_connections"`
	SnapshotEvery  time.Duration `yaml:"snapshot_interval"`
	Throttle       time.Duration `yaml:"broadcast_throttle"`
}

type TelemetryConfig struct {
	SDKIdentifier    string        `yaml:"sdk_identifier"`
	SDKVersion       string        `yaml:"sdk_version"`
	FromNavigationUI bool          `yaml:"from_navigation_ui"`
	LocationEngine   string        `yaml:"location_engine"`
	BufferSize       int           `yaml:"buffer_size"`
	Debug            bool          `yaml:"debug"`
	DeviceRefresh    time.Duration `yaml:"device_refresh"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

// SinkConfig selects where events go. The websocket broadcaster always
// receives events when the HTTP server runs; Kind picks the additional
// durable sink.
type SinkConfig struct {
	Kind  string      `yaml:"kind"`
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
	Keep     int    `yaml:"keep"`
}

// PrivacyConfig controls what event data is exposed to live clients.
type PrivacyConfig struct {
	MaskSessionIDs      bool `yaml:"mask_session_ids"`
	CoordinatePrecision int  `yaml:"coordinate_precision"`
	DropScreenshots     bool `yaml:"drop_screenshots"`
	DropLocationTrails  bool `yaml:"drop_location_trails"`
}

// NewPrivacyFilter creates an event.PrivacyFilter from the config.
func (p PrivacyConfig) NewPrivacyFilter() *event.PrivacyFilter {
	return &event.PrivacyFilter{
		MaskSessionIDs:      p.MaskSessionIDs,
		CoordinatePrecision: p.CoordinatePrecision,
		DropScreenshots:     p.DropScreenshots,
		DropLocationTrails:  p.DropLocationTrails,
	}
}

type MockConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Scenario string        `yaml:"scenario"`
	Tick     time.Duration `yaml:"tick"`
	Loop     bool          `yaml:"loop"`
	Seed     int64         `yaml:"seed"`
}

// HistoryConfig controls the on-disk trip history aggregate. An empty Dir
// uses $XDG_STATE_HOME/nav-telemetry.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "127.0.0.1",
			MaxConnections: 100,
			SnapshotEvery:  5 * time.Second,
			Throttle:       100 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			SDKVersion:      "1.0.0",
			LocationEngine:  "gps",
			BufferSize:      20,
			DeviceRefresh:   5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Sink: SinkConfig{
			Kind: SinkLog,
			Redis: RedisConfig{
				Addr:    "127.0.0.1:6379",
				Channel: "nav-telemetry:events",
				Keep:    100,
			},
		},
		Mock: MockConfig{
			Scenario: "steady",
			Tick:     time.Second,
			Loop:     true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load reads the config at path. Values missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// Validate rejects values the telemetry cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, errors.New("server.max_connections must not be negative"))
	}
	if c.Telemetry.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("telemetry.buffer_size must be positive, got %d", c.Telemetry.BufferSize))
	}
	if c.Telemetry.LocationEngine == "" {
		errs = append(errs, errors.New("telemetry.location_engine is required"))
	}
	switch c.Sink.Kind {
	case SinkLog, SinkWS:
	case SinkRedis:
		if c.Sink.Redis.Addr == "" || c.Sink.Redis.Channel == "" {
			errs = append(errs, errors.New("sink.redis needs addr and channel"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink.kind %q", c.Sink.Kind))
	}
	if p := c.Privacy.CoordinatePrecision; p < 0 || p > 15 {
		errs = append(errs, fmt.Errorf("privacy.coordinate_precision %d out of range", p))
	}
	if c.Mock.Enabled {
		if !knownScenario(c.Mock.Scenario) {
			errs = append(errs, fmt.Errorf("unknown mock.scenario %q", c.Mock.Scenario))
		}
		if c.Mock.Tick <= 0 {
			errs = append(errs, errors.New("mock.tick must be positive"))
		}
	}
	return errors.Join(errs...)
}

func knownScenario(name string) bool {
	for _, s := range MockScenarios {
		if s == name {
			return true
		}
	}
	return false
}

// SDKIdentifier returns the configured identifier, or the default for the
// integration kind.
func (c *Config) SDKIdentifier() string {
	if c.Telemetry.SDKIdentifier != "" {
		return c.Telemetry.SDKIdentifier
	}
	if c.Telemetry.FromNavigationUI {
		return SDKIdentifierUI
	}
	return SDKIdentifierCore
}

// GenerateToken returns a random 128-bit hex token suitable for
// server.auth_token.
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Diff describes the settings that differ between two configs, for logging
// on reload.
func Diff(old, new *Config) []string {
	var changes []string
	add := func(key string, a, b any) {
		if fmt.Sprint(a) != fmt.Sprint(b) {
			changes = append(changes, fmt.Sprintf("%s: %v → %v", key, a, b))
		}
	}

	add("privacy.mask_session_ids", old.Privacy.MaskSessionIDs, new.Privacy.MaskSessionIDs)
	add("privacy.coordinate_precision", old.Privacy.CoordinatePrecision, new.Privacy.CoordinatePrecision)
	add("privacy.drop_screenshots", old.Privacy.DropScreenshots, new.Privacy.DropScreenshots)
	add("privacy.drop_location_trails", old.Privacy.DropLocationTrails, new.Privacy.DropLocationTrails)
	add("telemetry.debug", old.Telemetry.Debug, new.Telemetry.Debug)
	add("server.allowed_origins", old.Server.AllowedOrigins, new.Server.AllowedOrigins)
	add("sink.kind", old.Sink.Kind, new.Sink.Kind)
	add("mock.scenario", old.Mock.Scenario, new.Mock.Scenario)
	add("history.enabled", old.History.Enabled, new.History.Enabled)
	return changes
}
