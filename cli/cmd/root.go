package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/BDNK1/netflow/cli/internal/config"
	"github.com/BDNK1/netflow/cli/internal/telemetry"
	"github.com/spf13/cobra"
)

// Exit codes returned by Execute.
const (
	ExitOK     = 0
	ExitFailed = 1 // a script ran and reported failure
	ExitError  = 2 // the script could not run
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// session is the state shared by subcommands once the config is loaded.
type session struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg       *config.Config
	logger    *slog.Logger
	providers *telemetry.Providers
}

func newRootCmd() (*cobra.Command, *session) {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:   "netflow",
		Short: "netflow - declarative web interaction scripts",
		Long: `netflow runs scripts that fetch pages, fill in and submit forms,
extract values and branch on them. Scripts are YAML, JSON or XML files in
the project's scripts directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&s.configPath, "config", "c", "", "Path to config file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&s.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&s.logFormat, "log-format", "", "Log format: text or json")

	// Add subcommands
	rootCmd.AddCommand(newRunCmd(s))
	rootCmd.AddCommand(newValidateCmd(s))
	rootCmd.AddCommand(newServeCmd(s))
	return rootCmd, s
}

func (s *session) open(cmd *cobra.Command) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	if s.logLevel != "" {
		cfg.Log.Level = s.logLevel
	}
	if s.logFormat != "" {
		cfg.Log.Format = s.logFormat
	}

	console := telemetry.NewLogger(cmd.ErrOrStderr(), cfg.Log)
	logger, providers, err := telemetry.Setup(cmd.Context(), cfg.Telemetry, console)
	if err != nil {
		return &exitError{code: ExitError, err: err}
	}
	slog.SetDefault(logger)

	s.cfg = cfg
	s.logger = logger
	s.providers = providers
	return nil
}

func (s *session) close(ctx context.Context) {
	if s.providers == nil {
		return
	}
	if err := s.providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Telemetry shutdown failed", "error", err)
	}
}

// Execute runs the root command with args and flushes telemetry afterwards.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd, s := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	s.close(ctx)
	return err
}
