package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configDir  = ".dataconsole"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "DATACONSOLE"

	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 30 * time.Second
)

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"base-url":   "server.base_url",
	"timeout":    "server.timeout",
	"export-dir": "preferences.export_dir",
	"log-level":  "preferences.log_level",
	"log-file":   "preferences.log_file",
}

// Load reads the configuration from path, or from ~/.dataconsole/config.yaml
// when path is empty. A missing default file yields the defaults.
//
// Precedence, highest first: changed flags, DATACONSOLE_* environment
// variables, the config file, defaults.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config dir: %w", err)
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType)

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
		if explicit || !missing {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func Save(cfg *Config) error {
	path := cfg.path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return fmt.Errorf("config dir: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("server", map[string]any{
		"base_url": cfg.Server.BaseURL,
		"timeout":  cfg.Server.Timeout.String(),
	})
	v.Set("datasets", cfg.Datasets)
	v.Set("preferences", cfg.Preferences)

	return v.WriteConfigAs(path)
}

// SaveDataset remembers a dataset and persists the configuration.
func SaveDataset(cfg *Config, d Dataset) error {
	if !cfg.AddDataset(d) {
		return nil
	}
	return Save(cfg)
}

// DefaultPath returns ~/.dataconsole/config.yaml.
func DefaultPath() (string, error) {
	dir, err := configDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile+"."+configType), nil
}

// Path returns the file the configuration was loaded from.
func (cfg *Config) Path() string {
	return cfg.path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", DefaultBaseURL)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("preferences.default_dataset", "")
	v.SetDefault("preferences.export_dir", ".")
	v.SetDefault("preferences.log_level", "INFO")

	if dir, err := configDirPath(); err == nil {
		v.SetDefault("preferences.log_file", filepath.Join(dir, "dataconsole.log"))
	} else {
		v.SetDefault("preferences.log_file", "")
	}
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
