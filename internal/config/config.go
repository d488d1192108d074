package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPPort    string
	LogMode     string
	JWTSecret   string
	JWTTTL      time.Duration

	// PersistTimeout bounds every storage call made by the progress tracker
	// and the chat service.
	PersistTimeout time.Duration

	ReplyDelayMin     time.Duration
	ReplyDelayMax     time.Duration
	MaxUtteranceRunes int

	// AdminEmails get the is_admin flag when they sign up.
	AdminEmails []string
	SessionIdle time.Duration

	// DotEnvLoaded reports whether a .env file was found.
	DotEnvLoaded bool
}

// Load reads the optional .env file and the process environment.
func Load() (Config, error) {
	loaded := godotenv.Load() == nil

	cfg := Config{
		DatabaseURL:       getEnv("DATABASE_URL", "academy.db"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogMode:           getEnv("LOG_MODE", "dev"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTTTL:            getEnvAsDuration("JWT_TTL", 24*time.Hour),
		PersistTimeout:    getEnvAsDuration("PERSIST_TIMEOUT", 8*time.Second),
		ReplyDelayMin:     getEnvAsDuration("REPLY_DELAY_MIN", time.Second),
		ReplyDelayMax:     getEnvAsDuration("REPLY_DELAY_MAX", 3*time.Second),
		MaxUtteranceRunes: getEnvAsInt("MAX_UTTERANCE_RUNES", 2000),
		AdminEmails:       getEnvAsList("ADMIN_EMAILS"),
		SessionIdle:       getEnvAsDuration("SESSION_IDLE", 30*time.Minute),
		DotEnvLoaded:      loaded,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.PersistTimeout <= 0 {
		return errors.New("PERSIST_TIMEOUT must be positive")
	}
	if c.ReplyDelayMin < 0 || c.ReplyDelayMax < c.ReplyDelayMin {
		return errors.New("REPLY_DELAY_MIN must be >= 0 and <= REPLY_DELAY_MAX")
	}
	if c.MaxUtteranceRunes <= 0 {
		return errors.New("MAX_UTTERANCE_RUNES must be positive")
	}
	if c.SessionIdle <= 0 {
		return errors.New("SESSION_IDLE must be positive")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
