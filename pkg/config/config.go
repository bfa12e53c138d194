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
	AppName   string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Matching     MatchingConfig
	Notification NotificationConfig
	Mail         MailConfig
	Calendar     CalendarConfig
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify operator access tokens.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MatchingConfig tunes candidate ranking.
type MatchingConfig struct {
	CacheEnabled  bool
	CacheTTL      time.Duration
	MaxCandidates int
}

// NotificationConfig configures the post-commit notification queue.
type NotificationConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
	Channel    string
}

// MailConfig configures outgoing assignment emails.
type MailConfig struct {
	SendgridAPIKey string
	FromAddress    string
	FromName       string
}

// CalendarConfig controls iCalendar rendering and signed calendar links.
type CalendarConfig struct {
	Timezone      string
	LinkTTL       time.Duration
	PublicBaseURL string
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
	cfg.AppName = v.GetString("APP_NAME")
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxCandidates := v.GetInt("MATCHING_MAX_CANDIDATES")
	if maxCandidates <= 0 {
		maxCandidates = 50
	}
	cfg.Matching = MatchingConfig{
		CacheEnabled:  v.GetBool("MATCHING_CACHE_ENABLED"),
		CacheTTL:      parseDuration(v.GetString("MATCHING_CACHE_TTL"), 2*time.Minute),
		MaxCandidates: maxCandidates,
	}

	cfg.Notification = NotificationConfig{
		Enabled:    v.GetBool("NOTIFY_ENABLED"),
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		Retries:    v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 5*time.Second),
		Channel:    v.GetString("NOTIFY_CHANNEL"),
	}

	cfg.Mail = MailConfig{
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromAddress:    v.GetString("MAIL_FROM_ADDRESS"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
	}

	cfg.Calendar = CalendarConfig{
		Timezone:      v.GetString("CALENDAR_TIMEZONE"),
		LinkTTL:       parseDuration(v.GetString("CALENDAR_LINK_TTL"), 30*24*time.Hour),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("APP_NAME", "Tutor Match")
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutor_match")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MATCHING_CACHE_ENABLED", true)
	v.SetDefault("MATCHING_CACHE_TTL", "2m")
	v.SetDefault("MATCHING_MAX_CANDIDATES", 50)

	v.SetDefault("NOTIFY_ENABLED", true)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "5s")
	v.SetDefault("NOTIFY_CHANNEL", "assignments.committed")

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@tutormatch.local")
	v.SetDefault("MAIL_FROM_NAME", "Tutor Match")

	v.SetDefault("CALENDAR_TIMEZONE", "UTC")
	v.SetDefault("CALENDAR_LINK_TTL", "720h")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
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
