// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                  string
	DBPath                string
	Environment           string
	LogLevel              slog.Level
	CORSOrigins           []string
	AutoClockOutTolerance time.Duration
	ShutdownTimeout       time.Duration
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	EnableScenarios       bool
}

// Load reads variables from the environment. A .env file in the working
// directory, or the files named, is applied first without overriding
// variables that are already set. A missing .env file is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	env := getEnv("APP_ENV", "development")
	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		DBPath:                getEnv("DB_PATH", "payroll.db"),
		Environment:           env,
		LogLevel:              level,
		CORSOrigins:           getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		AutoClockOutTolerance: getEnvDuration("AUTO_CLOCKOUT_TOLERANCE", 0),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		ReadTimeout:           getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:          getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		EnableScenarios:       getEnvBool("ENABLE_SCENARIOS", env != "production"),
	}, nil
}

func (c Config) IsProduction() bool { return c.Environment == "production" }

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("APP_ADDR is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.IsProduction() && c.DBPath == ":memory:" {
		return fmt.Errorf("DB_PATH must be a file in production")
	}
	if c.AutoClockOutTolerance < 0 || c.AutoClockOutTolerance > 30*time.Minute {
		return fmt.Errorf("AUTO_CLOCKOUT_TOLERANCE must be between 0 and 30m")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
