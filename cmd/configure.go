package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/keyring"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

// newTerminalReader creates a reader for the given file descriptor.
func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// prompter abstracts interactive menu selection for testing.
type prompter interface {
	SelectOption(options []string) (int, error)
	ReadLine(prompt string) (string, error)
}

// terminalPrompter implements prompter using stdin.
type terminalPrompter struct {
	scanner *bufio.Scanner
	writer  io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{scanner: bufio.NewScanner(r), writer: w}
}

func (p *terminalPrompter) SelectOption(options []string) (int, error) {
	for {
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("no input")
		}
		input := strings.TrimSpace(p.scanner.Text())
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(options) {
			_, _ = fmt.Fprintf(p.writer, "Please enter a number between 1 and %d: ", len(options))
			continue
		}
		return idx - 1, nil // Convert to 0-indexed
	}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// configureOptions holds dependencies for the configure command.
// This allows for dependency injection in tests.
type configureOptions struct {
	configPath     string
	cachePath      string
	store          keyring.Store
	passwordReader passwordReader
	prompt         prompter
	runtimeOpts    []app.RuntimeOption
	timeout        time.Duration
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts *configureOptions) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure host and credentials",
		Long: `Choose the host to connect to and remember your credentials in the
system keyring. The credentials are checked by logging in unless
--skip-check is given.

Example:
  stockview configure`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, *opts, skipCheck)
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Store credentials without logging in")

	// Don't show usage info on validation errors - just show the error
	cmd.SilenceUsage = true

	return cmd
}

// reconfigureMenuOptions defines the menu options when already configured.
var reconfigureMenuOptions = []string{
	"Select a different host",
	"Configure new credentials",
	"View current configuration",
	"Forget credentials and session",
}

func runConfigure(cmd *cobra.Command, opts configureOptions, skipCheck bool) error {
	// Verify we're running in an interactive terminal
	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("configure requires an interactive terminal\nRun this command directly in your terminal (not piped or in a script)")
	}

	// Check if already configured
	_, err := opts.store.Get(keyring.ServiceName, keyring.KeyUsername)
	if err == nil {
		return runReconfigureMenu(cmd, opts, skipCheck)
	}

	return runInitialSetup(cmd, opts, skipCheck)
}

// runReconfigureMenu shows the reconfigure menu when already configured.
func runReconfigureMenu(cmd *cobra.Command, opts configureOptions, skipCheck bool) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Credentials are already configured. What would you like to do?")
	_, _ = fmt.Fprintln(out)

	for i, opt := range reconfigureMenuOptions {
		_, _ = fmt.Fprintf(out, "  %d. %s\n", i+1, opt)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, "Select option: ")

	choice, err := opts.prompt.SelectOption(reconfigureMenuOptions)
	if err != nil {
		return fmt.Errorf("failed to read selection: %w", err)
	}

	switch choice {
	case 0:
		return runSelectHost(cmd, opts)
	case 1:
		return runInitialSetup(cmd, opts, skipCheck)
	case 2:
		return runViewConfiguration(cmd, opts)
	case 3:
		return runForget(cmd, opts)
	default:
		return fmt.Errorf("invalid selection")
	}
}

// loadOrDefault reads the config file, falling back to the defaults.
func loadOrDefault(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Default()
	}
	return cfg
}

// promptHost asks for one of the known hosts.
func promptHost(cmd *cobra.Command, opts configureOptions, cfg *config.Config) (string, error) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Select a host:")
	for i, host := range cfg.Remote.KnownHosts {
		marker := ""
		if host == cfg.Remote.Host {
			marker = " (current)"
		}
		_, _ = fmt.Fprintf(out, "  %d. %s%s\n", i+1, cfg.Endpoint(host), marker)
	}
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, "Select host: ")

	choice, err := opts.prompt.SelectOption(cfg.Remote.KnownHosts)
	if err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	return cfg.Remote.KnownHosts[choice], nil
}

// runInitialSetup selects the host and stores checked credentials.
func runInitialSetup(cmd *cobra.Command, opts configureOptions, skipCheck bool) error {
	out := cmd.OutOrStdout()
	cfg := loadOrDefault(opts.configPath)

	host, err := promptHost(cmd, opts, cfg)
	if err != nil {
		return err
	}
	cfg.Remote.Host = host

	username, err := opts.prompt.ReadLine("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	_, _ = fmt.Fprint(out, "Password: ")
	password, err := opts.passwordReader.ReadPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	_, _ = fmt.Fprintln(out) // Print newline after hidden input

	creds := auth.Credentials{Username: username, Password: password}
	if err := creds.Validate(); err != nil {
		return err
	}

	if !skipCheck {
		if err := checkCredentials(cfg, opts, creds); err != nil {
			return fmt.Errorf("failed to validate credentials: %w", err)
		}
	}

	if err := keyring.SaveCredentials(opts.store, creds); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(out, "Configuration saved successfully!")
	return nil
}

// checkCredentials logs in on cfg's host, caching the session.
func checkCredentials(cfg *config.Config, opts configureOptions, creds auth.Credentials) error {
	ctx := context.Background()
	s := sessionOptions{
		cfg:         cfg,
		cachePath:   opts.cachePath,
		runtimeOpts: opts.runtimeOpts,
		timeout:     opts.timeout,
	}
	rt, err := startRuntime(ctx, s)
	if err != nil {
		return err
	}
	defer rt.Stop()
	return authenticate(ctx, rt.App, creds, false, s.timeout)
}

// runSelectHost switches the configured host.
func runSelectHost(cmd *cobra.Command, opts configureOptions) error {
	cfg := loadOrDefault(opts.configPath)
	host, err := promptHost(cmd, opts, cfg)
	if err != nil {
		return err
	}
	cfg.Remote.Host = host

	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Host set to: %s\n", cfg.Address())
	return nil
}

// runViewConfiguration displays the current configuration.
func runViewConfiguration(cmd *cobra.Command, opts configureOptions) error {
	out := cmd.OutOrStdout()
	cfg := loadOrDefault(opts.configPath)

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Current Configuration:")
	_, _ = fmt.Fprintln(out, "----------------------")

	if creds, err := keyring.LoadCredentials(opts.store); err == nil {
		_, _ = fmt.Fprintf(out, "Credentials: %s\n", creds.Username)
	} else {
		_, _ = fmt.Fprintln(out, "Credentials: Not configured")
	}

	if tok, err := auth.LoadToken(opts.cachePath); err == nil && tok.IsValid() {
		_, _ = fmt.Fprintf(out, "Session: %s on %s (until %s)\n", tok.Username, tok.Endpoint,
			time.Unix(tok.ExpiresAt, 0).Format(time.DateTime))
	} else {
		_, _ = fmt.Fprintln(out, "Session: None")
	}

	_, _ = fmt.Fprintf(out, "Host: %s\n", cfg.Address())
	_, _ = fmt.Fprintf(out, "Executor: %s (%d workers)\n", cfg.Executor.Mode, cfg.Executor.Workers)
	_, _ = fmt.Fprintf(out, "Run mode: %s, refresh every %s\n", cfg.UI.RunMode, cfg.UI.RefreshInterval)

	return nil
}

// runForget removes stored credentials and the cached session.
func runForget(cmd *cobra.Command, opts configureOptions) error {
	if err := keyring.ForgetCredentials(opts.store); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	if err := auth.DeleteToken(opts.cachePath); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials and session cleared successfully.")
	return nil
}

func init() {
	// Create configure command with production dependencies
	opts := &configureOptions{
		cachePath:      auth.TokenCachePath(),
		store:          keyring.NewEnvStore(keyring.NewSystemStore()),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
		timeout:        30 * time.Second,
	}
	configureCmd := newConfigureCmd(opts)
	configureCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		opts.configPath = GetConfigPath()
		return config.LoadEnvFile(".env")
	}
	rootCmd.AddCommand(configureCmd)
}
