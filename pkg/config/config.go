package config

import (
	"errors"
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
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Store    StoreConfig
	Cache    CacheConfig
	Feed     FeedConfig
	Homework HomeworkConfig
	Exports  ExportsConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig tunes the document store change feed.
type StoreConfig struct {
	NotifyChannel     string
	ListenMinInterval time.Duration
	ListenMaxInterval time.Duration
}

// CacheConfig governs the read-path response cache.
type CacheConfig struct {
	Enabled         bool
	AnnouncementTTL time.Duration
	AttendanceTTL   time.Duration
	DashboardTTL    time.Duration
}

// FeedConfig tunes the realtime gallery feed.
type FeedConfig struct {
	Enabled           bool
	StreamPingPeriod  time.Duration
	ObserverQueueSize int
}

// HomeworkConfig bounds the per-day container fetch.
type HomeworkConfig struct {
	RecentContainers int
}

// ExportsConfig configures asynchronous report-card generation.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
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
		if !errors.As(err, &notFound) {
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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		NotifyChannel:     v.GetString("STORE_NOTIFY_CHANNEL"),
		ListenMinInterval: parseDuration(v.GetString("STORE_LISTEN_MIN_INTERVAL"), 100*time.Millisecond),
		ListenMaxInterval: parseDuration(v.GetString("STORE_LISTEN_MAX_INTERVAL"), 10*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_CACHE"),
		AnnouncementTTL: parseDuration(v.GetString("CACHE_ANNOUNCEMENT_TTL"), 2*time.Minute),
		AttendanceTTL:   parseDuration(v.GetString("CACHE_ATTENDANCE_TTL"), 5*time.Minute),
		DashboardTTL:    parseDuration(v.GetString("CACHE_DASHBOARD_TTL"), time.Minute),
	}

	cfg.Feed = FeedConfig{
		Enabled:           v.GetBool("ENABLE_FEED"),
		StreamPingPeriod:  parseDuration(v.GetString("FEED_STREAM_PING_PERIOD"), 25*time.Second),
		ObserverQueueSize: v.GetInt("FEED_OBSERVER_QUEUE_SIZE"),
	}

	cfg.Homework = HomeworkConfig{
		RecentContainers: v.GetInt("HOMEWORK_RECENT_CONTAINERS"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "parent_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "parent-portal-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_NOTIFY_CHANNEL", "docstore_changes")
	v.SetDefault("STORE_LISTEN_MIN_INTERVAL", "100ms")
	v.SetDefault("STORE_LISTEN_MAX_INTERVAL", "10s")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_ANNOUNCEMENT_TTL", "2m")
	v.SetDefault("CACHE_ATTENDANCE_TTL", "5m")
	v.SetDefault("CACHE_DASHBOARD_TTL", "1m")

	v.SetDefault("ENABLE_FEED", true)
	v.SetDefault("FEED_STREAM_PING_PERIOD", "25s")
	v.SetDefault("FEED_OBSERVER_QUEUE_SIZE", 8)

	v.SetDefault("HOMEWORK_RECENT_CONTAINERS", 30)

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
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
