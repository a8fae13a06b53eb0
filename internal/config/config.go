package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// DSN returns DATABASE_URL when set, otherwise a URL built from the individual fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// RedisConfig points at the Redis instance whose stream receives domain events.
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	Stream       string `mapstructure:"stream"`
	StreamMaxLen int64  `mapstructure:"stream_maxlen"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// SchedulerConfig.Spec is a cron expression with a seconds field. MetricsAddr is where the
// scheduler serves /metrics; empty disables it.
type SchedulerConfig struct {
	Spec        string `mapstructure:"spec"`
	Timezone    string `mapstructure:"timezone"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type SweeperConfig struct {
	Workers int `mapstructure:"workers"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type BusinessConfig struct {
	GracePeriodDays  int  `mapstructure:"grace_period_days"`
	RemindersEnabled bool `mapstructure:"reminders_enabled"`
	EventBufferSize  int  `mapstructure:"event_buffer_size"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]interface{}{
	"server.port":                "8080",
	"server.host":                "0.0.0.0",
	"server.env":                 "development",
	"server.read_timeout":        "15s",
	"server.write_timeout":       "15s",
	"database.url":               "",
	"database.host":              "localhost",
	"database.port":              "5432",
	"database.name":              "sponsorship",
	"database.user":              "sponsorship",
	"database.password":          "",
	"database.sslmode":           "disable",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "5m",
	"database.migrations_path":   "file://migrations",
	"redis.host":                 "localhost",
	"redis.port":                 "6379",
	"redis.password":             "",
	"redis.db":                   0,
	"redis.stream":               "sponsorship-events",
	"redis.stream_maxlen":        100000,
	"scheduler.spec":             "0 5 0 * * *",
	"scheduler.timezone":         "Asia/Dhaka",
	"scheduler.metrics_addr":     ":9091",
	"sweeper.workers":            4,
	"logging.level":              "info",
	"logging.format":             "",
	"business.grace_period_days": 3,
	"business.reminders_enabled": true,
	"business.event_buffer_size": 256,
	"health.timeout":             "5s",
}

// Load reads configuration from environment variables and an optional .env file.
// Keys map to environment variables by upper-casing and replacing dots, so
// "database.max_open_conns" is read from DATABASE_MAX_OPEN_CONNS.
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Unset LOGGING_FORMAT follows the environment.
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
		if config.IsDevelopment() {
			config.Logging.Format = "console"
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST and DATABASE_NAME are required")
	}

	if c.Business.GracePeriodDays <= 0 {
		return fmt.Errorf("BUSINESS_GRACE_PERIOD_DAYS must be greater than 0")
	}

	if c.Business.EventBufferSize <= 0 {
		return fmt.Errorf("BUSINESS_EVENT_BUFFER_SIZE must be greater than 0")
	}

	if c.Sweeper.Workers <= 0 {
		return fmt.Errorf("SWEEPER_WORKERS must be greater than 0")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("SCHEDULER_SPEC must be a valid cron expression: %w", err)
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_TIMEOUT must be a positive duration")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// Location returns the scheduler timezone used to decide what "today" is.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
