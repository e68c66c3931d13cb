// Package config loads the stockview configuration: a YAML file layered over
// defaults, then STOCKVIEW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STOCKVIEW_REMOTE_HOST.
const EnvPrefix = "STOCKVIEW"

const (
	DefaultPort            = 51411
	DefaultPollInterval    = 10 * time.Millisecond
	DefaultFetchTimeout    = 30 * time.Second
	DefaultRefreshInterval = 100 * time.Millisecond
)

// DefaultKnownHosts are the endpoints the client may be switched between.
var DefaultKnownHosts = []string{"localhost", "a.chiro.work"}

// Config holds the client configuration.
type Config struct {
	Remote   Remote   `yaml:"remote"`
	Dispatch Dispatch `yaml:"dispatch"`
	Executor Executor `yaml:"executor"`
	Fetch    Fetch    `yaml:"fetch"`
	UI       UI       `yaml:"ui"`
	Logging  Logging  `yaml:"logging"`
	Metrics  Metrics  `yaml:"metrics"`
}

type Remote struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	KnownHosts []string `yaml:"known_hosts" split_words:"true"`
	// Insecure uses a plaintext connection instead of TLS.
	Insecure bool `yaml:"insecure"`
}

type Dispatch struct {
	PollInterval time.Duration `yaml:"poll_interval" split_words:"true"`
}

type Executor struct {
	// Mode is auto, pool or cooperative.
	Mode    string `yaml:"mode"`
	Workers int    `yaml:"workers"`
}

type Fetch struct {
	// Timeout bounds every background task.
	Timeout time.Duration `yaml:"timeout"`
}

type UI struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" split_words:"true"`
	// RunMode is reactive or continuous.
	RunMode       string `yaml:"run_mode" split_words:"true"`
	Granularity   string `yaml:"granularity"`
	PredictLength int    `yaml:"predict_length" split_words:"true"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives logs while the terminal UI owns stdout. Empty means
	// log.txt in the config directory.
	File string `yaml:"file,omitempty"`
}

type Metrics struct {
	// Addr serves /metrics when set, e.g. ":9464".
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Remote: Remote{
			Host:       "localhost",
			Port:       DefaultPort,
			KnownHosts: slices.Clone(DefaultKnownHosts),
			Insecure:   true,
		},
		Dispatch: Dispatch{PollInterval: DefaultPollInterval},
		Executor: Executor{Mode: "auto", Workers: 8},
		Fetch:    Fetch{Timeout: DefaultFetchTimeout},
		UI: UI{
			RefreshInterval: DefaultRefreshInterval,
			RunMode:         "reactive",
			Granularity:     "weekly",
		},
		Logging: Logging{Level: "info", Format: "logfmt"},
	}
}

// ConfigDir returns the stockview configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/stockview.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stockview")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stockview")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads the file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from STOCKVIEW_* variables. Unset variables leave
// the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// LoadEnvFile loads variables from a dotenv file when it exists. Variables
// already set in the environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes cfg to path, creating the directory with 0700 and the file
// with 0600 permissions.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if !c.IsKnownHost(c.Remote.Host) {
		errs = append(errs, fmt.Errorf("remote.host %q is not one of the known hosts %v", c.Remote.Host, c.Remote.KnownHosts))
	}
	if c.Remote.Port <= 0 || c.Remote.Port > 65535 {
		errs = append(errs, fmt.Errorf("remote.port %d is out of range", c.Remote.Port))
	}
	if c.Dispatch.PollInterval <= 0 {
		errs = append(errs, errors.New("dispatch.poll_interval must be positive"))
	}
	switch c.Executor.Mode {
	case "auto", "pool", "cooperative":
	default:
		errs = append(errs, fmt.Errorf("executor.mode %q must be auto, pool or cooperative", c.Executor.Mode))
	}
	if c.Executor.Workers < 0 {
		errs = append(errs, errors.New("executor.workers must not be negative"))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, errors.New("fetch.timeout must not be negative"))
	}
	if c.UI.RefreshInterval <= 0 {
		errs = append(errs, errors.New("ui.refresh_interval must be positive"))
	}
	switch c.UI.RunMode {
	case "reactive", "continuous":
	default:
		errs = append(errs, fmt.Errorf("ui.run_mode %q must be reactive or continuous", c.UI.RunMode))
	}
	if c.UI.PredictLength < 0 {
		errs = append(errs, errors.New("ui.predict_length must not be negative"))
	}
	switch c.Logging.Format {
	case "logfmt", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be logfmt or json", c.Logging.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsKnownHost reports whether host may be selected.
func (c *Config) IsKnownHost(host string) bool {
	return slices.Contains(c.Remote.KnownHosts, host)
}

// Address joins the configured host and port.
func (c *Config) Address() string {
	return c.Endpoint(c.Remote.Host)
}

// Endpoint joins host with the configured port.
func (c *Config) Endpoint(host string) string {
	return net.JoinHostPort(host, strconv.Itoa(c.Remote.Port))
}

// LogFile returns where the terminal UI writes logs.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(ConfigDir(), "log.txt")
}
