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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Normalization NormalizationConfig
	Triggers      TriggerConfig
	Identity      IdentityConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	RunMigrations bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// NormalizationConfig tunes the schedule normalization pipeline.
type NormalizationConfig struct {
	CacheWindow           time.Duration
	InactivityWindow      time.Duration
	LockTTL               time.Duration
	LockWait              time.Duration
	GradeFetchConcurrency int
	LinkCatalogCacheTTL   time.Duration
}

// TriggerConfig sizes the in-process worker pool consuming event triggers.
type TriggerConfig struct {
	Workers    int
	BufferSize int
}

// IdentityConfig points at the external system resolving LMS student identifiers.
type IdentityConfig struct {
	ResolveURL string
	APIKey     string
	Timeout    time.Duration
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Normalization = NormalizationConfig{
		CacheWindow:           parseDuration(v.GetString("NORMALIZATION_CACHE_WINDOW"), time.Hour),
		InactivityWindow:      parseDuration(v.GetString("AUTO_STATUS_INACTIVITY_WINDOW"), 14*24*time.Hour),
		LockTTL:               parseDuration(v.GetString("NORMALIZATION_LOCK_TTL"), 2*time.Minute),
		LockWait:              parseDuration(v.GetString("NORMALIZATION_LOCK_WAIT"), 2*time.Minute),
		GradeFetchConcurrency: v.GetInt("GRADE_FETCH_CONCURRENCY"),
		LinkCatalogCacheTTL:   parseDuration(v.GetString("LINK_CATALOG_CACHE_TTL"), time.Minute),
	}

	cfg.Triggers = TriggerConfig{
		Workers:    v.GetInt("TRIGGER_WORKERS"),
		BufferSize: v.GetInt("TRIGGER_BUFFER_SIZE"),
	}

	cfg.Identity = IdentityConfig{
		ResolveURL: v.GetString("IDENTITY_RESOLVE_URL"),
		APIKey:     v.GetString("IDENTITY_API_KEY"),
		Timeout:    parseDuration(v.GetString("IDENTITY_TIMEOUT"), 10*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "schedule_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("NORMALIZATION_CACHE_WINDOW", "1h")
	v.SetDefault("AUTO_STATUS_INACTIVITY_WINDOW", "336h")
	v.SetDefault("NORMALIZATION_LOCK_TTL", "2m")
	v.SetDefault("NORMALIZATION_LOCK_WAIT", "2m")
	v.SetDefault("GRADE_FETCH_CONCURRENCY", 16)
	v.SetDefault("LINK_CATALOG_CACHE_TTL", "1m")

	v.SetDefault("TRIGGER_WORKERS", 2)
	v.SetDefault("TRIGGER_BUFFER_SIZE", 64)

	v.SetDefault("IDENTITY_RESOLVE_URL", "")
	v.SetDefault("IDENTITY_API_KEY", "")
	v.SetDefault("IDENTITY_TIMEOUT", "10s")
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
