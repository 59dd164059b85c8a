// Package config provides configuration management for netdrift.
//
// Config file locations (priority order):
//  1. $NETDRIFT_CONFIG
//  2. ./netdrift.yaml
//  3. ~/.config/netdrift/config.yaml
//  4. /etc/netdrift/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration, shared by the API server and
// the workers.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Worker   WorkerConfig   `yaml:"worker"`
	Netconf  NetconfConfig  `yaml:"netconf"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Scan     ScanConfig     `yaml:"scan"`
}

// ServerConfig covers the HTTP listener and API authentication. An empty
// APIToken disables authentication.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	APITokenKey string `yaml:"api_token_key"`
	APIToken    string `yaml:"api_token"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Concurrency  int           `yaml:"concurrency"`
}

type NetconfConfig struct {
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

type WebhookConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type ScanConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.APITokenKey == "" {
		c.Server.APITokenKey = "x-api-key"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./netdrift.db"
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = time.Second
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 2
	}
	if c.Netconf.Port == 0 {
		c.Netconf.Port = 830
	}
	if c.Netconf.Timeout == 0 {
		c.Netconf.Timeout = 30 * time.Second
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 10 * time.Second
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = 5 * time.Minute
	}
}
