package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/keyring"
	"github.com/chiro2001/financial-frontend/internal/logging"
	"github.com/chiro2001/financial-frontend/internal/remote"
	"github.com/chiro2001/financial-frontend/internal/tui"
)

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger log.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = level.Error(logger).Log("msg", "metrics listener failed", "addr", addr, "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// runUI starts the runtime and the terminal UI, and tears both down on
// exit.
func runUI(cfg *config.Config) error {
	logger, closer, err := logging.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	runtimeOpts := []app.RuntimeOption{
		app.WithRuntimeLogger(logger),
		app.WithSessionCache(auth.TokenCachePath()),
	}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector())
		runtimeOpts = append(runtimeOpts, app.WithMetrics(remote.NewMetrics(reg)))
		stop := serveMetrics(cfg.Metrics.Addr, reg, logging.Component(logger, "metrics"))
		defer stop()
	}

	rt, err := app.Start(context.Background(), cfg, runtimeOpts...)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Address(), err)
	}
	defer rt.Stop()

	store := keyring.NewEnvStore(keyring.NewSystemStore())
	if !rt.Restored {
		if creds, err := keyring.LoadCredentials(store); err == nil && creds.Validate() == nil {
			if err := rt.App.Login(creds); err != nil {
				_ = level.Warn(logger).Log("msg", "automatic login failed", "err", err)
			}
		}
	}

	uiCfgPath := tui.ConfigPath()
	uiCfg, err := tui.LoadConfig(uiCfgPath)
	if err != nil {
		_ = level.Warn(logger).Log("msg", "ignoring unreadable ui state", "path", uiCfgPath, "err", err)
		uiCfg = &tui.UIConfig{}
	}

	m := tui.New(rt.App, tui.Options{
		Store:           store,
		UIConfig:        uiCfg,
		UIConfigPath:    uiCfgPath,
		RefreshInterval: cfg.UI.RefreshInterval,
		KnownHosts:      cfg.Remote.KnownHosts,
		Logger:          logging.Component(logger, "tui"),
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func init() {
	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Interactive terminal UI",
		Long: `Launch an interactive terminal UI for browsing stocks.

The UI provides a full-screen experience with keyboard navigation:
  - Stocks: Search the stock list and open views
  - Views: Trading history charts, predictions and issue information
  - Debug: Frame rate, run mode, pending events and host switching

Keyboard shortcuts:
  1-3      Switch between screens
  /        Search stocks
  enter    Open the selected stock
  d/w/m    Daily, weekly or monthly bars
  p        Predict
  q        Quit the application

Logs are written to the log file in the config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runUI(cfg)
		},
	}

	uiCmd.SilenceUsage = true
	rootCmd.AddCommand(uiCmd)
}
