package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/output"
	"github.com/chiro2001/financial-frontend/internal/stockview"
)

// newPredictCmd creates the predict command with the given options.
func newPredictCmd(opts *sessionOptions) *cobra.Command {
	var (
		flagLength      int
		flagGranularity string
	)

	cmd := &cobra.Command{
		Use:   "predict SYMBOL",
		Short: "Predict the next bars of a stock",
		Long: `Extend the trading history of a stock with predicted bars.

The open, high, low and close channels are predicted separately and
recombined. The length may be at most a quarter of the series.

Examples:
  stockview predict SH600519 --length 5
  stockview predict 000001 --length 10 --granularity daily`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagLength <= 0 {
				return fmt.Errorf("length must be positive")
			}
			g, err := market.ParseGranularity(flagGranularity)
			if err != nil {
				return err
			}
			return runPredict(cmd, *opts, args[0], g, flagLength)
		},
	}

	cmd.Flags().IntVarP(&flagLength, "length", "l", 0, "Number of bars to predict (required)")
	cmd.Flags().StringVarP(&flagGranularity, "granularity", "g", "weekly", "Bar period: daily, weekly or monthly")
	_ = cmd.MarkFlagRequired("length")
	cmd.SilenceUsage = true
	return cmd
}

func runPredict(cmd *cobra.Command, opts sessionOptions, symbol string, g market.Granularity, length int) error {
	ctx := context.Background()
	rt, err := startSession(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Stop()

	a := rt.App
	v, err := openSeries(ctx, a, symbol, g, opts.timeout)
	if err != nil {
		return err
	}
	if got := v.SetPredictLength(length); got != length {
		return fmt.Errorf("length %d exceeds the maximum of %d for %d %s bars", length, v.MaxPredictLength(), len(v.Bars()), g)
	}
	if err := v.Predict(); err != nil {
		return err
	}
	err = settle(ctx, a, opts.timeout, func(*app.App) bool {
		return v.PredictionState() == stockview.PredictionIdle
	})
	if err != nil {
		return fmt.Errorf("prediction did not finish: %w", err)
	}
	if msg := v.PredictErr(); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	predicted := v.Predicted()
	rows := make([][]string, 0, len(predicted))
	for i, b := range predicted {
		rows = append(rows, []string{
			fmt.Sprintf("+%d", i+1),
			formatPrice(b.Open),
			formatPrice(b.High),
			formatPrice(b.Low),
			formatPrice(b.Close),
		})
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Table([]string{"Step", "Open", "High", "Low", "Close"}, rows)
}

func init() {
	opts := &sessionOptions{}
	predictCmd := newPredictCmd(opts)
	predictCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := defaultSessionOptions()
		if err != nil {
			return err
		}
		*opts = loaded
		return nil
	}
	rootCmd.AddCommand(predictCmd)
}
