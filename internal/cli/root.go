// Package cli implements the command-line entry point (spec.md §6's CLI
// surface): a cobra root command with --transport/--host/--port/--config/
// --debug flags and the server's four process exit codes.
//
// Grounded on the teacher's internal/cli (cobra root + subcommands,
// config-path default resolution, signal.NotifyContext-driven shutdown),
// generalized from the teacher's separate stdio/http subcommands to a
// single root command with a --transport flag, matching spec.md §6 exactly.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"secmcp/internal/app"
	"secmcp/internal/config"
)

// Exit codes, per spec.md §6.
const (
	ExitNormal      = 0
	ExitStartupFail = 1
	ExitConfigError = 2
	ExitInterrupted = 130
)

var (
	flagTransport string
	flagHost      string
	flagPort      int
	flagConfig    string
	flagDebug     bool
)

// NewRootCmd builds the secmcpd root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "secmcpd",
		Short:         "security-tool orchestration server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&flagTransport, "transport", "", "transport to run: stdio or http (overrides config)")
	cmd.PersistentFlags().StringVar(&flagHost, "host", "", "HTTP listen host (overrides config)")
	cmd.PersistentFlags().IntVar(&flagPort, "port", 0, "HTTP listen port (overrides config)")
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (optional; built-in defaults apply otherwise)")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "force debug log level")

	cmd.AddCommand(newConfigCmd(), newVersionCmd())

	return cmd
}

func run(ctx context.Context) error {
	if flagDebug {
		_ = os.Setenv("LOG_LEVEL", "debug")
	}
	a, err := app.New(flagConfig)
	if err != nil {
		// app.New's only fallible step is loading/validating config.
		return &configError{msg: err.Error()}
	}
	loader, err := config.Load(flagConfig)
	if err != nil {
		return &configError{msg: err.Error()}
	}
	srv := loader.Current().Server

	transport := flagTransport
	if transport == "" {
		transport = srv.Transport
	}

	switch transport {
	case "http":
		host, port := flagHost, flagPort
		if host == "" {
			host = srv.Host
		}
		if port == 0 {
			port = srv.Port
		}
		return a.RunHTTP(ctx, fmt.Sprintf("%s:%d", host, port))
	case "stdio":
		return a.RunStdio(ctx)
	default:
		return &configError{msg: fmt.Sprintf("unknown --transport %q (want stdio or http)", transport)}
	}
}

// configError lets Execute distinguish spec.md §6's exit code 2 (config
// invalid) from exit code 1 (any other startup/runtime failure) without
// string-matching cobra's returned error.
type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }

// Execute runs the root command and terminates the process with the
// appropriate exit code, per spec.md §6.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetContext(ctx)

	err := root.Execute()
	switch {
	case err == nil:
		if ctx.Err() != nil {
			os.Exit(ExitInterrupted)
		}
		os.Exit(ExitNormal)
	case isConfigError(err):
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(ExitConfigError)
	default:
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(ExitStartupFail)
	}
}

func isConfigError(err error) bool {
	_, ok := err.(*configError)
	return ok
}
