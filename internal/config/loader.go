package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/smartcrop")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	cfg := fromViper(v)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.Version = v.GetString("server_version")
	cfg.Server.CORSOrigins = splitList(v.GetString("cors_origins"))
	cfg.Server.BodyLimitMB = v.GetInt("server_body_limit_mb")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = v.GetInt32("postgres_max_conns")
	cfg.Postgres.MinConns = v.GetInt32("postgres_min_conns")
	cfg.Postgres.AutoMigrate = v.GetBool("postgres_auto_migrate")
	cfg.Postgres.SlowQueryTime = v.GetDuration("postgres_slow_query")

	// ClickHouse
	cfg.ClickHouse.Host = v.GetString("clickhouse_host")
	cfg.ClickHouse.Port = v.GetInt("clickhouse_port")
	cfg.ClickHouse.User = v.GetString("clickhouse_user")
	cfg.ClickHouse.Password = v.GetString("clickhouse_password")
	cfg.ClickHouse.Database = v.GetString("clickhouse_db")

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")
	cfg.Redis.Required = v.GetBool("redis_required")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.ImageBucket = v.GetString("minio_image_bucket")
	cfg.MinIO.ReportBucket = v.GetString("minio_report_bucket")
	cfg.MinIO.MaxImageMB = v.GetInt("minio_max_image_mb")

	// JWT
	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.Issuer = v.GetString("jwt_issuer")
	cfg.JWT.AccessExpiry = v.GetDuration("jwt_access_expiry")
	cfg.JWT.RefreshExpiry = v.GetDuration("jwt_refresh_expiry")

	// Rate Limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerMinute = v.GetInt("rate_limit_requests_per_minute")
	cfg.RateLimit.AuthPerMinute = v.GetInt("rate_limit_auth_per_minute")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.QueueCritical = v.GetString("worker_queue_critical")
	cfg.Worker.QueueDefault = v.GetString("worker_queue_default")
	cfg.Worker.QueueLow = v.GetString("worker_queue_low")
	cfg.Worker.WeatherSyncCron = v.GetString("worker_weather_sync_cron")
	cfg.Worker.IrrigationCheckCron = v.GetString("worker_irrigation_check_cron")
	cfg.Worker.MarketRefreshCron = v.GetString("worker_market_refresh_cron")
	cfg.Worker.SessionCleanupCron = v.GetString("worker_session_cleanup_cron")
	cfg.Worker.SessionInactiveAfter = v.GetDuration("worker_session_inactive_after")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")
	cfg.Sentry.Environment = cfg.Server.Env

	// Weather
	cfg.Weather.BaseURL = v.GetString("weather_base_url")
	cfg.Weather.APIKey = v.GetString("weather_api_key")
	cfg.Weather.Timeout = v.GetDuration("weather_timeout")
	cfg.Weather.CurrentCacheTTL = v.GetDuration("weather_current_cache_ttl")
	cfg.Weather.ForecastCacheTTL = v.GetDuration("weather_forecast_cache_ttl")
	cfg.Weather.BreakerFailures = v.GetUint32("weather_breaker_failures")
	cfg.Weather.BreakerTimeout = v.GetDuration("weather_breaker_timeout")

	// Market
	cfg.Market.DefaultTrendDays = v.GetInt("market_default_trend_days")
	cfg.Market.MaxHorizonDays = v.GetInt("market_max_horizon_days")
	cfg.Market.TrendCacheTTL = v.GetDuration("market_trend_cache_ttl")
	cfg.Market.ImportUserAgent = v.GetString("market_import_user_agent")

	// Advisory
	cfg.Advisory.Seed = v.GetInt64("advisory_seed")
	cfg.Advisory.MaxRecommendations = v.GetInt("advisory_max_recommendations")

	// Irrigation
	cfg.Irrigation.DefaultHorizonDays = v.GetInt("irrigation_default_horizon_days")
	cfg.Irrigation.RainEfficiency = v.GetFloat64("irrigation_rain_efficiency")

	return &cfg
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8000)
	v.SetDefault("server_env", "development")
	v.SetDefault("server_version", "dev")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("server_body_limit_mb", 12)

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "smartcrop")
	v.SetDefault("postgres_password", "smartcrop")
	v.SetDefault("postgres_db", "smartcrop")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)
	v.SetDefault("postgres_auto_migrate", true)
	v.SetDefault("postgres_slow_query", "100ms")

	// ClickHouse defaults
	v.SetDefault("clickhouse_host", "localhost")
	v.SetDefault("clickhouse_port", 9000)
	v.SetDefault("clickhouse_user", "smartcrop")
	v.SetDefault("clickhouse_password", "smartcrop")
	v.SetDefault("clickhouse_db", "smartcrop")

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_required", false)

	// MinIO defaults
	v.SetDefault("minio_endpoint", "localhost:9002")
	v.SetDefault("minio_access_key", "smartcrop")
	v.SetDefault("minio_secret_key", "smartcrop123")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_image_bucket", "crop-images")
	v.SetDefault("minio_report_bucket", "reports")
	v.SetDefault("minio_max_image_mb", 10)

	// JWT defaults
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_issuer", "smartcrop")
	v.SetDefault("jwt_access_expiry", "15m")
	v.SetDefault("jwt_refresh_expiry", "168h")

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_minute", 600)
	v.SetDefault("rate_limit_auth_per_minute", 20)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_queue_critical", "critical")
	v.SetDefault("worker_queue_default", "default")
	v.SetDefault("worker_queue_low", "low")
	v.SetDefault("worker_weather_sync_cron", "*/30 * * * *")
	v.SetDefault("worker_irrigation_check_cron", "0 * * * *")
	v.SetDefault("worker_market_refresh_cron", "30 2 * * *")
	v.SetDefault("worker_session_cleanup_cron", "0 3 * * *")
	v.SetDefault("worker_session_inactive_after", "720h")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("sentry_sample_rate", 1.0)

	// Weather defaults
	v.SetDefault("weather_base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather_timeout", "10s")
	v.SetDefault("weather_current_cache_ttl", "10m")
	v.SetDefault("weather_forecast_cache_ttl", "1h")
	v.SetDefault("weather_breaker_failures", 5)
	v.SetDefault("weather_breaker_timeout", "60s")

	// Market defaults
	v.SetDefault("market_default_trend_days", 30)
	v.SetDefault("market_max_horizon_days", 90)
	v.SetDefault("market_trend_cache_ttl", "6h")
	v.SetDefault("market_import_user_agent", "SmartCropAdvisory/1.0")

	// Advisory defaults
	v.SetDefault("advisory_seed", 0)
	v.SetDefault("advisory_max_recommendations", 10)

	// Irrigation defaults
	v.SetDefault("irrigation_default_horizon_days", 7)
	v.SetDefault("irrigation_rain_efficiency", 0.8)
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == defaultJWTSecret && cfg.IsProduction() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.JWT.AccessExpiry <= 0 || cfg.JWT.RefreshExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}
	if cfg.Market.MaxHorizonDays < 1 {
		return fmt.Errorf("market max horizon must be at least one day")
	}
	if cfg.Irrigation.RainEfficiency <= 0 || cfg.Irrigation.RainEfficiency > 1 {
		return fmt.Errorf("irrigation rain efficiency must be in (0,1], got %v", cfg.Irrigation.RainEfficiency)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
