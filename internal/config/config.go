package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	BotToken    string
	DatabaseURL string

	RedisAddr     string // empty disables the admin cache
	RedisPassword string
	RedisDB       int

	Timezone        string
	SummaryCronDays string // day-of-week field used by /settime, e.g. "1-5"
	AdminCacheTTL   time.Duration

	Debug bool
}

var reCronDays = regexp.MustCompile(`^(\*|[0-6](-[0-6])?(,[0-6](-[0-6])?)*)$`)

func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

func Load() (Config, error) {
	cfg := Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		Timezone:        getEnv("TZ", "Asia/Ho_Chi_Minh"),
		SummaryCronDays: getEnv("SUMMARY_CRON_DAYS", "1-5"),
		AdminCacheTTL:   getEnvDuration("ADMIN_CACHE_TTL", 10*time.Minute),
		Debug:           os.Getenv("DEBUG") == "true",
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TZ %q: %w", c.Timezone, err)
	}
	if !reCronDays.MatchString(c.SummaryCronDays) {
		return fmt.Errorf("invalid SUMMARY_CRON_DAYS %q", c.SummaryCronDays)
	}
	if c.AdminCacheTTL <= 0 {
		return fmt.Errorf("ADMIN_CACHE_TTL must be positive")
	}
	return nil
}

// Location resolves the configured timezone. Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
