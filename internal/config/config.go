// Package config loads settings from the environment, optionally seeded by a
// .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/developia-II/feedback-analyzer-backend/internal/auth"
)

type Config struct {
	Port string

	DatabaseURL string
	DBName      string

	AIAPIKey       string
	AIBaseURL      string
	AIDefaultModel string
	ModelCacheTTL  time.Duration

	SecretKey      string
	AccessTokenTTL time.Duration

	AdminUsername   string
	AdminPassword   string
	AdminForceReset bool

	FrontendURL     string
	GlobalRateLimit int

	StartupRetries   int
	StartupBaseDelay time.Duration

	LogLevel  string
	LogFormat string
}

// New returns a viper instance bound to the environment with every default
// applied.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DB_NAME", "feedback_analyzer")
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("AI_DEFAULT_MODEL", "gemini-2.0-flash")
	v.SetDefault("MODEL_CACHE_TTL", "10m")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_FORCE_RESET", false)
	v.SetDefault("FRONTEND_URL", "*")
	v.SetDefault("GLOBAL_RATE_LIMIT", 100)
	v.SetDefault("DB_STARTUP_RETRIES", 10)
	v.SetDefault("DB_STARTUP_BASE_DELAY", "2s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	return v
}

// Load reads .env files (missing files are ignored) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return FromViper(New())
}

func FromViper(v *viper.Viper) (*Config, error) {
	apiKey := strings.TrimSpace(v.GetString("AI_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(v.GetString("GOOGLE_API_KEY"))
	}

	cfg := &Config{
		Port:             v.GetString("PORT"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		DBName:           v.GetString("DB_NAME"),
		AIAPIKey:         apiKey,
		AIBaseURL:        v.GetString("AI_BASE_URL"),
		AIDefaultModel:   v.GetString("AI_DEFAULT_MODEL"),
		ModelCacheTTL:    v.GetDuration("MODEL_CACHE_TTL"),
		SecretKey:        v.GetString("SECRET_KEY"),
		AccessTokenTTL:   time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		AdminUsername:    v.GetString("ADMIN_USERNAME"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		AdminForceReset:  v.GetBool("ADMIN_FORCE_RESET"),
		FrontendURL:      v.GetString("FRONTEND_URL"),
		GlobalRateLimit:  v.GetInt("GLOBAL_RATE_LIMIT"),
		StartupRetries:   v.GetInt("DB_STARTUP_RETRIES"),
		StartupBaseDelay: v.GetDuration("DB_STARTUP_BASE_DELAY"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %s", c.AccessTokenTTL))
	}
	if len(c.AdminPassword) > auth.MaxPasswordBytes {
		errs = append(errs, fmt.Errorf("ADMIN_PASSWORD must be at most %d bytes", auth.MaxPasswordBytes))
	}
	if c.StartupRetries < 1 {
		errs = append(errs, fmt.Errorf("DB_STARTUP_RETRIES must be at least 1, got %d", c.StartupRetries))
	}
	if c.GlobalRateLimit < 0 {
		errs = append(errs, fmt.Errorf("GLOBAL_RATE_LIMIT must not be negative, got %d", c.GlobalRateLimit))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
