package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Sweeper modes.
const (
	SweeperCron     = "cron"
	SweeperTemporal = "temporal"
	SweeperOff      = "off"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Offers    OffersConfig    `mapstructure:"offers"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	RateLimit      int    `mapstructure:"rate_limit"`
	CORSOrigins    string `mapstructure:"cors_origins"`
	NodeID         int64  `mapstructure:"node_id"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxConns     int32  `mapstructure:"max_conns"`
	QueryTimeout int    `mapstructure:"query_timeout"`
	SQLitePath   string `mapstructure:"sqlite_path"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// QueryTimeoutDuration converts the configured seconds.
func (d DatabaseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Enabled   bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// LogConfig selects the slog handler. File, when set, adds a rotating log
// file next to stdout.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type OffersConfig struct {
	TTLHours           int `mapstructure:"ttl_hours"`
	MinValidityMinutes int `mapstructure:"min_validity_minutes"`
	CacheTTL           int `mapstructure:"cache_ttl"`
}

// TTL converts the configured hours.
func (o OffersConfig) TTL() time.Duration {
	return time.Duration(o.TTLHours) * time.Hour
}

type SweeperConfig struct {
	Mode              string `mapstructure:"mode"`
	Schedule          string `mapstructure:"schedule"`
	TemporalHost      string `mapstructure:"temporal_host"`
	TemporalNamespace string `mapstructure:"temporal_namespace"`
	TaskQueue         string `mapstructure:"task_queue"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", 15)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.node_id", 1)
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geodrop")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "geodrop")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.query_timeout", 5)
	v.SetDefault("database.sqlite_path", "geodrop.db")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.key_prefix", "geodrop:")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 64)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("offers.ttl_hours", 24)
	v.SetDefault("offers.min_validity_minutes", 30)
	v.SetDefault("offers.cache_ttl", 30)
	v.SetDefault("sweeper.mode", SweeperCron)
	v.SetDefault("sweeper.schedule", "@every 1m")
	v.SetDefault("sweeper.temporal_host", "localhost:7233")
	v.SetDefault("sweeper.temporal_namespace", "default")
	v.SetDefault("sweeper.task_queue", "geodrop-sweeper")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEODROP_DATABASE_HOST → database.host
	v.SetEnvPrefix("GEODROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}
	if c.Server.NodeID < 0 || c.Server.NodeID > 1023 {
		errs = append(errs, fmt.Sprintf("server.node_id must be 0-1023, got %d", c.Server.NodeID))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "database.max_conns must be positive")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, "database.sqlite_path is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver))
	}
	if c.Database.QueryTimeout <= 0 {
		errs = append(errs, "database.query_timeout must be positive")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if c.Offers.TTLHours <= 0 {
		errs = append(errs, "offers.ttl_hours must be positive")
	}
	if c.Offers.MinValidityMinutes < 0 {
		errs = append(errs, "offers.min_validity_minutes must not be negative")
	}
	if c.Offers.CacheTTL < 0 {
		errs = append(errs, "offers.cache_ttl must not be negative")
	}

	switch c.Sweeper.Mode {
	case SweeperCron:
		if _, err := cron.ParseStandard(c.Sweeper.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("sweeper.schedule %q: %v", c.Sweeper.Schedule, err))
		}
	case SweeperTemporal:
		if c.Sweeper.TemporalHost == "" {
			errs = append(errs, "sweeper.temporal_host is required")
		}
		if c.Sweeper.TaskQueue == "" {
			errs = append(errs, "sweeper.task_queue is required")
		}
	case SweeperOff:
	default:
		errs = append(errs, fmt.Sprintf("sweeper.mode must be cron, temporal or off, got %q", c.Sweeper.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
