package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Dicklesworthstone/battmon/internal/store"
)

// Config carries runtime options for battmon.
type Config struct {
	Interval time.Duration `validate:"gte=1s"`
	Source   string        `validate:"oneof=auto ioreg sysfs"`

	Store         string `validate:"oneof=file redis none"`
	StatePath     string `validate:"required_if=Store file"`
	RedisAddr     string `validate:"required_if=Store redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string

	JSON       bool
	JSONStream bool
}

func Default() Config {
	return Config{
		Interval:  30 * time.Second,
		Source:    "auto",
		Store:     "file",
		StatePath: store.DefaultFilePath(),
		RedisAddr: "localhost:6379",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// FromFlags loads .env, applies environment overrides, then flags, and
// validates the result.
func FromFlags(args []string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	applyEnv(&cfg)

	fs := flag.NewFlagSet("battmon", flag.ContinueOnError)
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "sampling interval")
	fs.StringVar(&cfg.Source, "source", cfg.Source, "battery source: auto|ioreg|sysfs")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "window store: file|redis|none")
	fs.StringVar(&cfg.StatePath, "state", cfg.StatePath, "state file for the file store")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for the redis store")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "redis database")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text|json")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "output one-shot JSON and exit")
	fs.BoolVar(&cfg.JSONStream, "json-stream", cfg.JSONStream, "stream NDJSON until interrupted")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BATTMON_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		}
	}
	cfg.Source = getEnv("BATTMON_SOURCE", cfg.Source)
	cfg.Store = getEnv("BATTMON_STORE", cfg.Store)
	cfg.StatePath = getEnv("BATTMON_STATE_PATH", cfg.StatePath)
	cfg.RedisAddr = getEnv("BATTMON_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("BATTMON_REDIS_PASSWORD", cfg.RedisPassword)
	if v := os.Getenv("BATTMON_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = db
		}
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnv("BATTMON_LOG_FILE", cfg.LogFile)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
