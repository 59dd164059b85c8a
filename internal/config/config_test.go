package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Server.APITokenKey != "x-api-key" {
		t.Errorf("unexpected token key: %s", cfg.Server.APITokenKey)
	}
	if cfg.Server.APIToken != "" {
		t.Error("expected auth disabled by default")
	}
	if cfg.Database.Path != "./netdrift.db" {
		t.Errorf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Netconf.Port != 830 {
		t.Errorf("unexpected netconf port: %d", cfg.Netconf.Port)
	}
	if cfg.Worker.Concurrency != 2 {
		t.Errorf("unexpected concurrency: %d", cfg.Worker.Concurrency)
	}
}

func TestLoadFromPath(t *testing.T) {
	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "netdrift.yaml")
		content := `
server:
  listen_addr: ":9000"
  api_token: "secret"
worker:
  poll_interval: 5s
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, from, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if from != path {
			t.Errorf("unexpected source path: %s", from)
		}
		if cfg.Server.ListenAddr != ":9000" {
			t.Errorf("unexpected listen addr: %s", cfg.Server.ListenAddr)
		}
		if cfg.Server.APIToken != "secret" {
			t.Errorf("unexpected token: %s", cfg.Server.APIToken)
		}
		if cfg.Worker.PollInterval != 5*time.Second {
			t.Errorf("unexpected poll interval: %s", cfg.Worker.PollInterval)
		}
		if cfg.Netconf.Port != 830 {
			t.Errorf("expected defaulted netconf port, got %d", cfg.Netconf.Port)
		}
	})

	t.Run("bad yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "netdrift.yaml")
		if err := os.WriteFile(path, []byte("server: ["), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, _, err := LoadFromPath(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, _, err := LoadFromPath("/no/such/netdrift.yaml"); err == nil {
			t.Error("expected read error")
		}
	})
}
