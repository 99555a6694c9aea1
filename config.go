package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config is the externally supplied surface of the service. Nothing here is
// hardcoded at use sites; defaults match the store's historical settings.
type Config struct {
	ListenAddr string
	DSN        string
	JWTSecret  string

	TokenTTL         time.Duration
	MaxTokensPerUser int
	CleanupInterval  time.Duration
	CleanupGrace     time.Duration

	PolicyFile string
}

// loadConfig reads configuration from the environment after auto-loading a
// local .env file (existing variables win over .env entries).
func loadConfig() Config {
	loadDotEnv()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}

	return Config{
		ListenAddr:       envString("LISTEN_ADDR", ":8081"),
		DSN:              os.Getenv("DB_DSN"),
		JWTSecret:        secret,
		TokenTTL:         time.Duration(envInt("JWT_EXPIRATION_SECONDS", 86400)) * time.Second,
		MaxTokensPerUser: envInt("JWT_MAX_TOKENS_PER_USER", 5),
		CleanupInterval:  envDuration("TOKEN_CLEANUP_INTERVAL", time.Hour),
		CleanupGrace:     envDuration("TOKEN_CLEANUP_GRACE", 24*time.Hour),
		PolicyFile:       os.Getenv("POLICY_FILE"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
