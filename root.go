package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cboxdev/cs3fs-go/internal/config"
	"github.com/cboxdev/cs3fs-go/internal/cs3"
	"github.com/cboxdev/cs3fs-go/internal/cs3fs"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by
// PersistentPreRunE. Available to all subcommands after the root
// pre-run phase completes.
var resolvedCfg *config.Config

// newRootCmd builds and returns the fully-assembled root command with
// all subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cs3fs",
		Short:   "CS3 storage gateway CLI client",
		Long:    "A filesystem-shaped CLI for CS3-style storage gateways: files, versions, shares.",
		Version: version,
		// Silence cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(flagConfigPath)
			if err != nil {
				return err
			}

			resolvedCfg = cfg

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newStatCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newRmCmd())
	cmd.AddCommand(newMvCmd())
	cmd.AddCommand(newCpCmd())
	cmd.AddCommand(newQuotaCmd())
	cmd.AddCommand(newVersionsCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newShareCmd())
	cmd.AddCommand(newLinkCmd())
	cmd.AddCommand(newReceivedCmd())
	cmd.AddCommand(newUsersCmd())
	cmd.AddCommand(newGroupsCmd())
	cmd.AddCommand(newRefreshTokenCmd())

	return cmd
}

// buildLogger creates the CLI logger. Interactive terminals get the
// text handler; pipes and log collectors get JSON.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// newFS wires credential, gateway client, and filesystem adapter from
// the resolved config. Each invocation gets its own credential
// instance; concurrent sessions must not share one.
func newFS() (*cs3fs.FS, *slog.Logger, error) {
	logger := buildLogger()

	credential, err := cs3.LoadCredential(resolvedCfg.TokenPath, logger)
	if err != nil {
		return nil, nil, err
	}

	httpClient := &http.Client{
		Timeout: time.Duration(resolvedCfg.TimeoutSeconds) * time.Second,
	}

	client := cs3.NewClient(resolvedCfg.BaseURL(), httpClient, credential, logger)

	return cs3fs.New(client, resolvedCfg.RootPath, logger), logger, nil
}

// printError writes a classified error with the status code a serving
// layer would report, as an aid when scripting against the CLI.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v (status %d)\n", err, cs3.HTTPStatus(err))
}

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// newRefreshTokenCmd proactively re-reads the credential from its
// side-channel source, the same refresh the client performs reactively
// after an authentication failure.
func newRefreshTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-token",
		Short: "Re-read the bearer token from its source file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := buildLogger()

			credential, err := cs3.LoadCredential(resolvedCfg.TokenPath, logger)
			if err != nil {
				return err
			}

			if err := credential.Refresh(); err != nil {
				return err
			}

			statusf("Token refreshed from %s\n", resolvedCfg.TokenPath)

			return nil
		},
	}
}
