package tui

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/market"
)

// UIConfig holds TUI state kept between runs, separate from the client
// config.
type UIConfig struct {
	// Views are the stock views open when the UI last quit.
	Views  []market.Entity `yaml:"views,omitempty"`
	Search string          `yaml:"search,omitempty"`
	Debug  bool            `yaml:"debug,omitempty"`
}

// ConfigPath returns the path to the TUI config file.
func ConfigPath() string {
	return filepath.Join(config.ConfigDir(), "ui.yaml")
}

// LoadConfig loads the TUI config from path. A missing file yields an
// empty config.
func LoadConfig(path string) (*UIConfig, error) {
	cfg := &UIConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the TUI config to path.
func SaveConfig(path string, cfg *UIConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
