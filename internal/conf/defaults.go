package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/idempomlieko/expressive/internal/biz/domain"
)

// DefaultsConfig contains tunable defaults loaded from YAML
type DefaultsConfig struct {
	Logs  LogToggles  `yaml:"logs"`
	Dedup DedupConfig `yaml:"dedup"`
}

// LogToggles are the audit log toggles applied to chats that have not
// configured their own. Nil means "use the built-in default".
type LogToggles struct {
	LogCreate  *bool `yaml:"log_create"`
	LogEdit    *bool `yaml:"log_edit"`
	LogDelete  *bool `yaml:"log_delete"`
	LogTrigger *bool `yaml:"log_trigger"`
}

// DedupConfig contains message dedup settings
type DedupConfig struct {
	WindowMinutes int `yaml:"window_minutes"`
}

// LoadDefaultsConfig loads the defaults configuration from YAML file
func LoadDefaultsConfig(configPath string) (*DefaultsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/expressive.yaml",
			"./configs/expressive.yaml",
			"/etc/expressive/expressive.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "expressive.yaml"))
		}
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, "configs", "expressive.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		logrus.Info("no expressive.yaml found, using defaults")
		return builtinDefaults(), nil
	}

	logrus.Infof("loading defaults from %s", loadedPath)

	var config DefaultsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse expressive.yaml: %w", err)
	}

	if config.Dedup.WindowMinutes <= 0 {
		config.Dedup.WindowMinutes = 5
	}

	return &config, nil
}

// builtinDefaults is the configuration used when no file is present or the
// file cannot be parsed
func builtinDefaults() *DefaultsConfig {
	return &DefaultsConfig{Dedup: DedupConfig{WindowMinutes: 5}}
}

// LogDefaults resolves the configured toggles into domain defaults.
// Create, edit and delete logging default to on; trigger logging to off.
func (c *DefaultsConfig) LogDefaults() domain.LogDefaults {
	resolve := func(v *bool, def bool) bool {
		if v == nil {
			return def
		}
		return *v
	}
	return domain.LogDefaults{
		LogCreate:  resolve(c.Logs.LogCreate, true),
		LogEdit:    resolve(c.Logs.LogEdit, true),
		LogDelete:  resolve(c.Logs.LogDelete, true),
		LogTrigger: resolve(c.Logs.LogTrigger, false),
	}
}
