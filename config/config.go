// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/stonify5/duelserver/figure"
)

type Config struct {
	Addr           string
	WSPath         string
	AllowedOrigins []string
	DatabaseURL    string
	SendBuffer     int
	FigureCacheTTL time.Duration
	FigureMirrors  []string
	LogLevel       string
	LogPretty      bool
}

// LoadDotenv loads .env into the environment. A missing file is an error
// the caller may ignore.
func LoadDotenv(files ...string) error {
	return godotenv.Load(files...)
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:           getEnv("ADDR", ":8080"),
		WSPath:         getEnv("WS_PATH", "/ws/tekken"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		FigureMirrors:  splitList(os.Getenv("FIGURE_MIRRORS")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	if len(cfg.FigureMirrors) == 0 {
		cfg.FigureMirrors = figure.DefaultMirrors
	}

	var err error
	if cfg.SendBuffer, err = getInt("SEND_BUFFER", 64); err != nil {
		return Config{}, err
	}
	if cfg.SendBuffer <= 0 {
		return Config{}, fmt.Errorf("SEND_BUFFER must be positive, got %d", cfg.SendBuffer)
	}
	if cfg.FigureCacheTTL, err = getDuration("FIGURE_CACHE_TTL", figure.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.LogPretty, err = getBool("LOG_PRETTY", false); err != nil {
		return Config{}, err
	}
	if !strings.HasPrefix(cfg.WSPath, "/") {
		return Config{}, fmt.Errorf("WS_PATH must start with /, got %q", cfg.WSPath)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
