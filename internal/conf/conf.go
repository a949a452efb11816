package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Document store configuration
	Storage StorageConfig

	// Admin API configuration
	API APIConfig

	// Defaults loaded from YAML
	Defaults *DefaultsConfig

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// StorageConfig contains document store configuration
type StorageConfig struct {
	DBPath string
}

// APIConfig contains admin API configuration
type APIConfig struct {
	Port int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("EXPRESSIVE_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".expressive", "documents.db")
	}

	apiPort := 8787
	if val := os.Getenv("EXPRESSIVE_API_PORT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			apiPort = parsed
		}
	}

	defaults, err := LoadDefaultsConfig(os.Getenv("EXPRESSIVE_CONFIG_PATH"))
	if err != nil {
		logrus.Warnf("defaults file unusable, falling back to built-in defaults: %v", err)
		defaults = builtinDefaults()
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Storage: StorageConfig{
			DBPath: dbPath,
		},
		API: APIConfig{
			Port: apiPort,
		},
		Defaults: defaults,
		Debug:    os.Getenv("DEBUG") == "true",
	}
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" {
		return fmt.Errorf("FEISHU_APP_ID is required")
	}
	if c.Feishu.AppSecret == "" {
		return fmt.Errorf("FEISHU_APP_SECRET is required")
	}
	return nil
}

// DedupWindow returns the message dedup window as a duration
func (c *Config) DedupWindow() time.Duration {
	if c.Defaults == nil {
		return 0
	}
	return time.Duration(c.Defaults.Dedup.WindowMinutes) * time.Minute
}
