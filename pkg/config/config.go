package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Uploads  UploadsConfig
	Import   ImportConfig
	Batches  BatchConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs caching of stats and batch analysis payloads.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// AuthConfig holds the bearer credentials accepted for admin routes.
type AuthConfig struct {
	JWTSecret   string
	AdminTokens []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig controls staging of uploaded CSV files.
type UploadsConfig struct {
	StorageDir       string
	MaxFileSizeBytes int64
	StaleTTL         time.Duration
	CleanupInterval  time.Duration
	// RateLimit uses the limiter "<count>-<period>" form, e.g. "30-M". Empty disables it.
	RateLimit        string
}

// ImportConfig tunes the CSV import pipeline.
type ImportConfig struct {
	MaxReportedErrors int
}

// BatchConfig holds cohort sizing thresholds.
type BatchConfig struct {
	MinSize     int
	MaxSize     int
	SplitTarget int
	QueueBuffer int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:   v.GetString("JWT_SECRET"),
		AdminTokens: splitAndTrim(v.GetString("ADMIN_TOKENS")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes: maxUpload,
		StaleTTL:         parseDuration(v.GetString("UPLOADS_STALE_TTL"), time.Hour),
		CleanupInterval:  parseDuration(v.GetString("UPLOADS_CLEANUP_INTERVAL"), 15*time.Minute),
		RateLimit:        v.GetString("UPLOADS_RATE_LIMIT"),
	}

	cfg.Import = ImportConfig{
		MaxReportedErrors: v.GetInt("IMPORT_MAX_REPORTED_ERRORS"),
	}

	cfg.Batches = BatchConfig{
		MinSize:     v.GetInt("BATCH_MIN_SIZE"),
		MaxSize:     v.GetInt("BATCH_MAX_SIZE"),
		SplitTarget: v.GetInt("BATCH_SPLIT_TARGET"),
		QueueBuffer: v.GetInt("BATCH_QUEUE_BUFFER"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3001)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "edusmart_user")
	v.SetDefault("DB_PASSWORD", "edusmart_pass")
	v.SetDefault("DB_NAME", "edusmart_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("ADMIN_TOKENS", "demo-jwt-token-admin-123456")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_STALE_TTL", "1h")
	v.SetDefault("UPLOADS_CLEANUP_INTERVAL", "15m")
	v.SetDefault("UPLOADS_RATE_LIMIT", "30-M")

	v.SetDefault("IMPORT_MAX_REPORTED_ERRORS", 10)

	v.SetDefault("BATCH_MIN_SIZE", 20)
	v.SetDefault("BATCH_MAX_SIZE", 60)
	v.SetDefault("BATCH_SPLIT_TARGET", 50)
	v.SetDefault("BATCH_QUEUE_BUFFER", 8)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
