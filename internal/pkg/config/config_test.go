package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("geodrop-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.Offers.TTL() != 24*time.Hour {
		t.Errorf("expected 24h offer ttl, got %v", cfg.Offers.TTL())
	}
	if cfg.Offers.CacheTTL != 30 {
		t.Errorf("expected cache ttl 30, got %d", cfg.Offers.CacheTTL)
	}
	if cfg.Telemetry.ServiceName != "geodrop-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
	if got := cfg.Database.DSN(); got != "postgres://geodrop:@localhost:5432/geodrop?sslmode=disable" {
		t.Errorf("unexpected DSN %q", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEODROP_DATABASE_DRIVER", "sqlite")
	t.Setenv("GEODROP_DATABASE_SQLITE_PATH", "/tmp/drops.db")
	t.Setenv("GEODROP_SERVER_PORT", "9090")
	t.Setenv("GEODROP_SWEEPER_MODE", "off")

	cfg, err := Load("geodrop-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Database.SQLitePath != "/tmp/drops.db" {
		t.Errorf("sqlite override not applied: %+v", cfg.Database)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Sweeper.Mode != SweeperOff {
		t.Errorf("expected sweeper off, got %q", cfg.Sweeper.Mode)
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, RequestTimeout: 15, NodeID: 1},
		Database: DatabaseConfig{Driver: DriverSQLite, SQLitePath: "geodrop.db", QueryTimeout: 5},
		Offers:   OffersConfig{TTLHours: 24, MinValidityMinutes: 30, CacheTTL: 30},
		Sweeper:  SweeperConfig{Mode: SweeperCron, Schedule: "@every 1m"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres needs host", func(c *Config) {
			c.Database = DatabaseConfig{Driver: DriverPostgres, Port: 5432, User: "u", DBName: "d", MaxConns: 4, QueryTimeout: 5}
		}, "database.host"},
		{"node id range", func(c *Config) { c.Server.NodeID = 2048 }, "server.node_id"},
		{"nats url", func(c *Config) { c.NATS.Enabled = true }, "nats.url"},
		{"bad schedule", func(c *Config) { c.Sweeper.Schedule = "every minute" }, "sweeper.schedule"},
		{"unknown sweeper", func(c *Config) { c.Sweeper.Mode = "manual" }, "sweeper.mode"},
		{"temporal queue", func(c *Config) {
			c.Sweeper = SweeperConfig{Mode: SweeperTemporal, TemporalHost: "localhost:7233"}
		}, "sweeper.task_queue"},
		{"offer ttl", func(c *Config) { c.Offers.TTLHours = 0 }, "offers.ttl_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Database.QueryTimeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "database.query_timeout") {
		t.Errorf("expected both violations, got %v", err)
	}
}
