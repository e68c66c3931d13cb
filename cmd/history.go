package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/output"
)

var barHeaders = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// newHistoryCmd creates the history command with the given options.
func newHistoryCmd(opts *sessionOptions) *cobra.Command {
	var (
		flagGranularity string
		flagLimit       int
	)

	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "View trading history of a stock",
		Long: `View the daily, weekly or monthly trading history of a stock.

SYMBOL is the exchange symbol (SH600519) or the bare code (600519).

Examples:
  stockview history SH600519                     # Weekly bars
  stockview history 600519 --granularity daily   # Daily bars
  stockview history SH600519 --limit 0 --json    # Every bar as JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := market.ParseGranularity(flagGranularity)
			if err != nil {
				return err
			}
			if flagLimit < 0 {
				return fmt.Errorf("limit must not be negative")
			}
			return runHistory(cmd, *opts, args[0], g, flagLimit)
		},
	}

	cmd.Flags().StringVarP(&flagGranularity, "granularity", "g", "weekly", "Bar period: daily, weekly or monthly")
	cmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Show only the latest N bars (0 for all)")
	cmd.SilenceUsage = true
	return cmd
}

func runHistory(cmd *cobra.Command, opts sessionOptions, symbol string, g market.Granularity, limit int) error {
	ctx := context.Background()
	rt, err := startSession(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Stop()

	v, err := openSeries(ctx, rt.App, symbol, g, opts.timeout)
	if err != nil {
		return err
	}

	bars := v.Bars()
	if len(bars) == 0 && !opts.jsonMode {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No trading history")
		return nil
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Table(barHeaders, barRows(bars))
}

func barRows(bars []market.Bar) [][]string {
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			b.Date,
			formatPrice(b.Open),
			formatPrice(b.High),
			formatPrice(b.Low),
			formatPrice(b.Close),
			strconv.FormatInt(b.Volume, 10),
		})
	}
	return rows
}

func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

func init() {
	opts := &sessionOptions{}
	historyCmd := newHistoryCmd(opts)
	historyCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := defaultSessionOptions()
		if err != nil {
			return err
		}
		*opts = loaded
		return nil
	}
	rootCmd.AddCommand(historyCmd)
}
