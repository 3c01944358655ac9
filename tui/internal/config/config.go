// Package config loads the console settings file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	URL       string        `yaml:"url"`
	Token     string        `yaml:"token"`
	Style     string        `yaml:"style"`
	MaxEvents int           `yaml:"max_events"`
	Poll      time.Duration `yaml:"poll_interval"`
}

func defaultConfig() *Config {
	return &Config{
		URL:       "ws://127.0.0.1:8080/ws",
		Style:     "dark",
		MaxEvents: 200,
		Poll:      5 * time.Second,
	}
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, fmt.Errorf("url %q must be a ws:// or wss:// URL", c.URL))
	}
	if c.MaxEvents <= 0 {
		errs = append(errs, errors.New("max_events must be positive"))
	}
	if c.Poll <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	return errors.Join(errs...)
}

// HTTPBase converts ws://host:port/ws to http://host:port.
func (c *Config) HTTPBase() string {
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
