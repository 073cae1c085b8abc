package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver         string
	DBDSN            string
	ServerPort       string
	SessionSecret    string
	JWTSecret        string
	JWTTTL           time.Duration
	AutoLockInterval time.Duration
	CapabilitiesFile string
	AdminUsername    string
	AdminPassword    string
}

// Load reads the configuration and exits the process when it is invalid.
func Load() *Config {
	cfg, err := LoadE()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// LoadE reads .env (if present) and the environment.
func LoadE() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:         os.Getenv("DB_DRIVER"),
		DBDSN:            os.Getenv("DB_DSN"),
		ServerPort:       os.Getenv("SERVER_PORT"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		CapabilitiesFile: os.Getenv("CAPABILITIES_FILE"),
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.DBDriver == "" {
		cfg.DBDriver = "postgres"
	}
	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres, mysql or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AutoLockInterval, err = durationEnv("AUTOLOCK_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
