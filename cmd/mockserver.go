package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/logging"
	"github.com/chiro2001/financial-frontend/internal/mockserver"
)

// mockServerOptions holds dependencies for the mock-server command.
type mockServerOptions struct {
	logger log.Logger
	// listen overrides net.Listen in tests.
	listen func(addr string) (net.Listener, error)
	ctx    context.Context
}

// newMockServerCmd creates the mock-server command with the given options.
func newMockServerCmd(opts *mockServerOptions) *cobra.Command {
	var (
		flagListen string
		flagUsers  []string
		flagSeed   int64
		flagBars   int
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve generated market data",
		Long: `Run a gRPC server with generated random-walk series, issue information
and naive predictions, for development without the real service.

Examples:
  stockview mock-server
  stockview mock-server --listen :51411 --user alice:secret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := parseUsers(flagUsers)
			if err != nil {
				return err
			}
			return runMockServer(cmd, *opts, flagListen, mockserver.Options{
				Seed:      flagSeed,
				DailyBars: flagBars,
				Users:     users,
				Logger:    opts.logger,
			})
		},
	}

	cmd.Flags().StringVar(&flagListen, "listen", ":51411", "Address to listen on")
	cmd.Flags().StringArrayVar(&flagUsers, "user", nil, "Account as name:password (repeatable)")
	cmd.Flags().Int64Var(&flagSeed, "seed", 1, "Seed for generated data")
	cmd.Flags().IntVar(&flagBars, "bars", 240, "Length of daily series")
	cmd.SilenceUsage = true
	return cmd
}

func parseUsers(entries []string) (map[string]string, error) {
	users := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, password, ok := strings.Cut(entry, ":")
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("invalid user %q, expected name:password", entry)
		}
		users[name] = password
	}
	return users, nil
}

func runMockServer(cmd *cobra.Command, opts mockServerOptions, addr string, serverOpts mockserver.Options) error {
	lis, err := opts.listen(addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Mock server listening on %s\n", lis.Addr())
	return mockserver.New(serverOpts).Serve(opts.ctx, lis)
}

func init() {
	opts := &mockServerOptions{
		logger: logging.New(os.Stderr, "info", "logfmt"),
		listen: func(addr string) (net.Listener, error) { return net.Listen("tcp", addr) },
	}
	mockCmd := newMockServerCmd(opts)
	mockCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		opts.ctx = ctx
		cobra.OnFinalize(stop)
		return nil
	}
	rootCmd.AddCommand(mockCmd)
}
