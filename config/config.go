package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct, populated from the
// environment (and an optional .env file) at bootstrap.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Lifecycle LifecycleConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LifecycleConfig bounds container startup so one unresponsive service cannot
// stall the whole boot.
type LifecycleConfig struct {
	InitTimeout time.Duration // per-service Initialize budget; 0 = unbounded
	BootTimeout time.Duration // overall InitializeAll deadline
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Load reads .env (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist outside local development
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "pitchside"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Host:            env("SERVER_HOST", ""),
			Port:            env("SERVER_PORT", "8080"),
			ReadTimeout:     envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    envDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: envDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Lifecycle: LifecycleConfig{
			InitTimeout: envDuration("LIFECYCLE_INIT_TIMEOUT", 30*time.Second),
			BootTimeout: envDuration("LIFECYCLE_BOOT_TIMEOUT", 2*time.Minute),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// GetDuration returns a time.Duration env value (e.g. "30s", "2m").
func GetDuration(key string, defaultVal time.Duration) time.Duration {
	return envDuration(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
