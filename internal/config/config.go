// ABOUTME: Configuration loader for the admin console
// ABOUTME: Loads settings from environment variables with defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Backend
	ServerURL          string // base URL of the administered service
	TimeoutSeconds     int    // HTTP client timeout (default 30)
	InsecureSkipVerify bool   // explicit opt-in for insecure TLS connections

	// Session
	ConfigDir         string // token file, logs; defaults to XDG config dir
	RenewBelowSeconds int    // silent renew threshold for the console (default 60)

	// Logging
	LogLevel string // debug, info, warn, error (default: info)
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerURL:          ensureScheme(os.Getenv("SPVADMIN_URL")),
		TimeoutSeconds:     getEnvInt("SPVADMIN_TIMEOUT_SECONDS", 30),
		InsecureSkipVerify: getEnvBool("SPVADMIN_INSECURE_SKIP_VERIFY", false),
		ConfigDir:          getEnv("SPVADMIN_CONFIG_DIR", DefaultConfigDir()),
		RenewBelowSeconds:  getEnvInt("SPVADMIN_RENEW_BELOW_SECONDS", 60),
		LogLevel:           getEnv("SPVADMIN_LOG_LEVEL", "info"),
	}

	if cfg.TimeoutSeconds < 1 || cfg.TimeoutSeconds > 600 {
		return nil, fmt.Errorf("SPVADMIN_TIMEOUT_SECONDS must be between 1 and 600, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RenewBelowSeconds < 0 {
		return nil, fmt.Errorf("SPVADMIN_RENEW_BELOW_SECONDS must not be negative, got %d", cfg.RenewBelowSeconds)
	}

	return cfg, nil
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spvadmin")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "spvadmin")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return strings.TrimRight(url, "/")
}
