package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	MinIO      MinIOConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Worker     WorkerConfig
	Log        LogConfig
	Sentry     SentryConfig
	Weather    WeatherConfig
	Market     MarketConfig
	Advisory   AdvisoryConfig
	Irrigation IrrigationConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Env         string   `mapstructure:"env"`
	Version     string   `mapstructure:"version"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	BodyLimitMB int      `mapstructure:"body_limit_mb"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	SSLMode       string `mapstructure:"ssl_mode"`
	MaxConns      int32  `mapstructure:"max_conns"`
	MinConns      int32  `mapstructure:"min_conns"`
	AutoMigrate   bool   `mapstructure:"auto_migrate"`
	SlowQueryTime time.Duration
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Addr returns the native protocol address
func (c ClickHouseConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Required makes startup fail when Redis is unreachable instead of
	// falling back to the in-process token store.
	Required bool `mapstructure:"required"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	ImageBucket  string `mapstructure:"image_bucket"`
	ReportBucket string `mapstructure:"report_bucket"`
	MaxImageMB   int    `mapstructure:"max_image_mb"`
}

// JWTConfig holds token configuration
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	AuthPerMinute     int  `mapstructure:"auth_per_minute"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency          int    `mapstructure:"concurrency"`
	QueueCritical        string `mapstructure:"queue_critical"`
	QueueDefault         string `mapstructure:"queue_default"`
	QueueLow             string `mapstructure:"queue_low"`
	WeatherSyncCron      string `mapstructure:"weather_sync_cron"`
	IrrigationCheckCron  string `mapstructure:"irrigation_check_cron"`
	MarketRefreshCron    string `mapstructure:"market_refresh_cron"`
	SessionCleanupCron   string `mapstructure:"session_cleanup_cron"`
	SessionInactiveAfter time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Environment string  `mapstructure:"environment"`
}

// Enabled reports whether a DSN is configured
func (c SentryConfig) Enabled() bool {
	return c.DSN != ""
}

// WeatherConfig holds the external weather provider configuration
type WeatherConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	APIKey           string `mapstructure:"api_key"`
	Timeout          time.Duration
	CurrentCacheTTL  time.Duration
	ForecastCacheTTL time.Duration
	BreakerFailures  uint32 `mapstructure:"breaker_failures"`
	BreakerTimeout   time.Duration
}

// UseMock reports whether the synthetic provider should serve requests
func (c WeatherConfig) UseMock() bool {
	return c.APIKey == ""
}

// MarketConfig holds market analysis configuration
type MarketConfig struct {
	DefaultTrendDays int    `mapstructure:"default_trend_days"`
	MaxHorizonDays   int    `mapstructure:"max_horizon_days"`
	TrendCacheTTL    time.Duration
	ImportUserAgent  string `mapstructure:"import_user_agent"`
}

// AdvisoryConfig holds advisory engine configuration
type AdvisoryConfig struct {
	// Seed is mixed with the farm and day into every generation
	Seed               int64 `mapstructure:"seed"`
	MaxRecommendations int   `mapstructure:"max_recommendations"`
}

// IrrigationConfig holds irrigation analysis configuration
type IrrigationConfig struct {
	DefaultHorizonDays int     `mapstructure:"default_horizon_days"`
	RainEfficiency     float64 `mapstructure:"rain_efficiency"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c Config) String() string {
	return fmt.Sprintf("env=%s addr=%s postgres=%s:%d clickhouse=%s redis=%s",
		c.Server.Env, c.Server.Addr(), c.Postgres.Host, c.Postgres.Port, c.ClickHouse.Addr(), c.Redis.Addr())
}
