package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the server and seed tool.
type Config struct {
	HTTPPort      string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	JWTSecret     string
	CORSOrigins   string

	LogLevel  string
	LogFormat string
	LogFile   string

	// SessionTTL bounds how long an unfinished assessment stays in Redis.
	SessionTTL time.Duration

	TaxonomyCacheSize int
	TaxonomyCacheTTL  time.Duration

	// LinkCodeTTL is how long a child's link code stays redeemable.
	LinkCodeTTL time.Duration

	// RetakeInterval is the minimum spacing suggested between two assessments.
	RetakeInterval time.Duration

	ShutdownTimeout time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "readingcompass")
	v.SetDefault("REDIS_URI", "localhost:6379")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("SESSION_TTL", 72*time.Hour)
	v.SetDefault("TAXONOMY_CACHE_SIZE", 32)
	v.SetDefault("TAXONOMY_CACHE_TTL", 10*time.Minute)
	v.SetDefault("LINK_CODE_TTL", 15*time.Minute)
	v.SetDefault("RETAKE_INTERVAL", 90*24*time.Hour)
	v.SetDefault("SHUTDOWN_TIMEOUT", 30*time.Second)
}

// Load reads the configuration and validates it for serving.
func Load(envFiles ...string) (*Config, error) {
	cfg, err := Read(envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads optional .env files (".env" when none are given), then the
// environment, without validating the result.
func Read(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		HTTPPort:          v.GetString("PORT"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDatabase:     v.GetString("MONGO_DATABASE"),
		RedisAddr:         strings.TrimPrefix(v.GetString("REDIS_URI"), "redis://"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		CORSOrigins:       v.GetString("CORS_ALLOWED_ORIGINS"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		LogFile:           v.GetString("LOG_FILE"),
		SessionTTL:        v.GetDuration("SESSION_TTL"),
		TaxonomyCacheSize: v.GetInt("TAXONOMY_CACHE_SIZE"),
		TaxonomyCacheTTL:  v.GetDuration("TAXONOMY_CACHE_TTL"),
		LinkCodeTTL:       v.GetDuration("LINK_CODE_TTL"),
		RetakeInterval:    v.GetDuration("RETAKE_INTERVAL"),
		ShutdownTimeout:   v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("config: JWT_SECRET is required")
	case c.MongoURI == "":
		return errors.New("config: MONGO_URI is required")
	case c.RedisAddr == "":
		return errors.New("config: REDIS_URI is required")
	case c.TaxonomyCacheSize <= 0:
		return fmt.Errorf("config: TAXONOMY_CACHE_SIZE must be positive, got %d", c.TaxonomyCacheSize)
	case c.SessionTTL <= 0:
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.SessionTTL)
	case c.LinkCodeTTL <= 0:
		return fmt.Errorf("config: LINK_CODE_TTL must be positive, got %s", c.LinkCodeTTL)
	}
	return nil
}
