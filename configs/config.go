package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	RedisAddr     string // empty: presence kept in memory
	CORSOrigins   string
	AcceptEmpty   bool // PUT writes explicit empty strings
	SessionBuffer int
	Debounce      time.Duration
}

func Default() Config {
	return Config{
		Port:          3000,
		CORSOrigins:   "*",
		SessionBuffer: 64,
		Debounce:      300 * time.Millisecond,
	}
}

// Load reads an optional .env file and then the environment on top of the
// defaults.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from lookup, which is usually os.Getenv.
func FromEnv(lookup func(string) string) (Config, error) {
	cfg := Default()
	var err error
	if v := lookup("PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
	}
	cfg.RedisAddr = lookup("REDIS_ADDR")
	if v := lookup("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = v
	}
	if v := lookup("ACCEPT_EMPTY_FIELDS"); v != "" {
		if cfg.AcceptEmpty, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("ACCEPT_EMPTY_FIELDS: %w", err)
		}
	}
	if v := lookup("SESSION_BUFFER"); v != "" {
		if cfg.SessionBuffer, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("SESSION_BUFFER: %w", err)
		}
	}
	if v := lookup("DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("DEBOUNCE_MS: %w", err)
		}
		cfg.Debounce = time.Duration(ms) * time.Millisecond
	}
	if cfg.SessionBuffer <= 0 {
		log.Printf("SESSION_BUFFER=%d is not positive, using %d", cfg.SessionBuffer, Default().SessionBuffer)
		cfg.SessionBuffer = Default().SessionBuffer
	}
	return cfg, nil
}
