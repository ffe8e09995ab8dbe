package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config represents the application configuration.
type Config struct {
	Server      Server      `mapstructure:"server" yaml:"server"`
	Datasets    []Dataset   `mapstructure:"datasets" yaml:"datasets"`
	Preferences Preferences `mapstructure:"preferences" yaml:"preferences"`

	path string
}

// Server describes the remote query engine.
type Server struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Dataset is a saved dataset the console can be opened on.
type Dataset struct {
	Name string `mapstructure:"name" yaml:"name"`
	ID   string `mapstructure:"id" yaml:"id"`
}

// Preferences holds user preferences.
type Preferences struct {
	DefaultDataset string `mapstructure:"default_dataset" yaml:"default_dataset"`
	ExportDir      string `mapstructure:"export_dir" yaml:"export_dir"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	LogFile        string `mapstructure:"log_file" yaml:"log_file"`
}

// DisplayString returns a human-readable summary of the dataset.
func (d Dataset) DisplayString() string {
	if d.Name == "" || d.Name == d.ID {
		return d.ID
	}
	return d.Name + " (" + d.ID + ")"
}

// Validate checks the values the console cannot run without.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url %q: scheme must be http or https", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", cfg.Server.Timeout)
	}
	for i, d := range cfg.Datasets {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("datasets[%d]: id is required", i)
		}
	}
	return nil
}

// HasDataset checks if a dataset with the given id is already saved.
func (cfg *Config) HasDataset(id string) bool {
	for _, d := range cfg.Datasets {
		if d.ID == id {
			return true
		}
	}
	return false
}

// AddDataset appends a dataset if it isn't already saved.
// It reports whether the list changed.
func (cfg *Config) AddDataset(d Dataset) bool {
	if d.ID == "" || cfg.HasDataset(d.ID) {
		return false
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	cfg.Datasets = append(cfg.Datasets, d)
	return true
}

// DefaultDataset returns the preferred saved dataset, or the first one.
func (cfg *Config) DefaultDataset() *Dataset {
	if len(cfg.Datasets) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultDataset != "" {
		for i := range cfg.Datasets {
			d := &cfg.Datasets[i]
			if d.Name == cfg.Preferences.DefaultDataset || d.ID == cfg.Preferences.DefaultDataset {
				return d
			}
		}
	}

	return &cfg.Datasets[0]
}
