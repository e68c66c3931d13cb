package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/config"
)

var Version = "dev"

var (
	// jsonOutput controls whether output is formatted as JSON
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "stockview",
	Short: "Stock history and prediction client",
	Long: `A terminal client for browsing listed stocks, their daily, weekly and
monthly trading history, and model predictions served over gRPC.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

// GetConfigPath returns the config file in use.
func GetConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig reads .env from the working directory and then the config file.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
