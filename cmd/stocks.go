package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/output"
)

// newStocksCmd creates the stocks command with the given options.
func newStocksCmd(opts *sessionOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "List listed stocks",
		Long: `List the stocks known to the service.

The search pattern is a regular expression matched against the code, the
symbol and the name. An invalid pattern is matched as plain text.

Examples:
  stockview stocks                  # All stocks
  stockview stocks --search ^SZ     # Shenzhen listings
  stockview stocks --search 银行     # Names containing 银行`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStocks(cmd, *opts, search)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by regular expression")
	cmd.SilenceUsage = true
	return cmd
}

func runStocks(cmd *cobra.Command, opts sessionOptions, search string) error {
	ctx := context.Background()
	rt, err := startSession(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Stop()

	a := rt.App
	if _, err := loadEntities(ctx, a, opts.timeout); err != nil {
		return err
	}
	a.SetSearch(search)
	if err := a.Search().Err(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Note: %v, matching as text\n", err)
	}

	entities := a.Entities()
	if len(entities) == 0 && !opts.jsonMode {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No stocks found")
		return nil
	}

	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{e.Code, e.Symbol, e.Name})
	}
	return output.New(cmd.OutOrStdout(), opts.jsonMode).Table([]string{"Code", "Symbol", "Name"}, rows)
}

func init() {
	opts := &sessionOptions{}
	stocksCmd := newStocksCmd(opts)
	stocksCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := defaultSessionOptions()
		if err != nil {
			return err
		}
		*opts = loaded
		return nil
	}
	rootCmd.AddCommand(stocksCmd)
}
