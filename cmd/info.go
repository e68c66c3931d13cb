package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/output"
)

// newInfoCmd creates the info command with the given options.
func newInfoCmd(opts *sessionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info SYMBOL",
		Short: "Show stock issue information",
		Long: `Show how a stock was issued: listing market, dates, issue price,
underwriters and related figures.

Examples:
  stockview info SH600519
  stockview info 000001 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, *opts, args[0])
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func runInfo(cmd *cobra.Command, opts sessionOptions, symbol string) error {
	ctx := context.Background()
	rt, err := startSession(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Stop()

	a := rt.App
	entities, err := loadEntities(ctx, a, opts.timeout)
	if err != nil {
		return err
	}
	for _, e := range entities {
		if e.Symbol != symbol && e.Code != symbol {
			continue
		}
		v := a.OpenView(e)
		err := settle(ctx, a, opts.timeout, func(*app.App) bool {
			return v.Metadata() != nil || v.MetadataErr() != ""
		})
		if err != nil {
			return fmt.Errorf("failed to fetch issue information: %w", err)
		}
		if msg := v.MetadataErr(); msg != "" {
			return fmt.Errorf("failed to fetch issue information: %s", msg)
		}
		pairs := append([][2]string{{"Stock", e.Title()}}, v.Metadata().Fields()...)
		return output.New(cmd.OutOrStdout(), opts.jsonMode).KeyValues(pairs)
	}
	return fmt.Errorf("unknown symbol %q", symbol)
}

func init() {
	opts := &sessionOptions{}
	infoCmd := newInfoCmd(opts)
	infoCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := defaultSessionOptions()
		if err != nil {
			return err
		}
		*opts = loaded
		return nil
	}
	rootCmd.AddCommand(infoCmd)
}
