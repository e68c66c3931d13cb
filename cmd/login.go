package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/keyring"
)

// loginOptions holds dependencies for the login command.
type loginOptions struct {
	session        sessionOptions
	passwordReader passwordReader
	prompt         prompter
}

// newLoginCmd creates the login command with the given options.
func newLoginCmd(opts *loginOptions) *cobra.Command {
	var (
		flagUsername string
		flagRegister bool
		flagRemember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the service",
		Long: `Log in (or register) on the configured host. The session is cached so
later commands and the terminal UI start logged in.

Examples:
  stockview login
  stockview login --username alice --remember
  stockview login --register`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, *opts, flagUsername, flagRegister, flagRemember)
		},
	}

	cmd.Flags().StringVarP(&flagUsername, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().BoolVar(&flagRegister, "register", false, "Create the account first")
	cmd.Flags().BoolVar(&flagRemember, "remember", false, "Remember the credentials in the system keyring")
	cmd.SilenceUsage = true
	return cmd
}

func runLogin(cmd *cobra.Command, opts loginOptions, username string, register, remember bool) error {
	if username == "" {
		line, err := opts.prompt.ReadLine("Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = line
	}

	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("login requires an interactive terminal\nRun this command directly in your terminal (not piped or in a script)")
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	password, err := opts.passwordReader.ReadPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	creds := auth.Credentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	s := opts.session
	rt, err := startRuntime(ctx, s)
	if err != nil {
		return err
	}
	defer rt.Stop()

	if err := authenticate(ctx, rt.App, creds, register, s.timeout); err != nil {
		return err
	}

	if remember {
		if err := keyring.SaveCredentials(s.store, creds); err != nil {
			return fmt.Errorf("logged in, but failed to remember credentials: %w", err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s on %s\n", creds.Username, rt.App.Host())
	return nil
}

// newLogoutCmd creates the logout command.
func newLogoutCmd(opts *sessionOptions) *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Drop the cached session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteToken(opts.cachePath); err != nil {
				return fmt.Errorf("failed to remove session: %w", err)
			}
			if forget {
				if err := keyring.ForgetCredentials(opts.store); err != nil {
					return fmt.Errorf("failed to forget credentials: %w", err)
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "Also forget remembered credentials")
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	opts := &loginOptions{
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
	}
	loginCmd := newLoginCmd(opts)
	loginCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := defaultSessionOptions()
		if err != nil {
			return err
		}
		opts.session = loaded
		return nil
	}

	sessionOpts := &sessionOptions{}
	logoutCmd := newLogoutCmd(sessionOpts)
	logoutCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := defaultSessionOptions()
		if err != nil {
			return err
		}
		*sessionOpts = loaded
		return nil
	}

	rootCmd.AddCommand(loginCmd, logoutCmd)
}
