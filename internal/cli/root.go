package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/engine"
	"github.com/roach88/ledger/internal/store"
)

// StoreOpener opens the document store selected by cfg. The returned
// function releases it.
type StoreOpener func(ctx context.Context, cfg *config.Config) (store.DocumentStore, func() error, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	MaxAttempts int    // overrides max_attempts from the config file when > 0
	MetricsFile string // Prometheus textfile written after each command

	// OpenStore overrides backend selection (for testing).
	// If nil, the backend named in the config is opened.
	OpenStore StoreOpener

	// Clock overrides the engine clock (for testing).
	Clock engine.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledger CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts.
// Tests use it to inject a store and a clock.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger - component versions and test results",
		Long: `A shared registry of software components, their released versions,
test setups and the results of testing setups against concrete versions.

The ledger is one JSON document in a revisioned store (SQLite, Google Cloud
Storage or a GitHub repository). Every change is a compare-and-swap write, so
concurrent CI jobs never overwrite each other.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default: local ledger.db)")
	cmd.PersistentFlags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "write attempts per change (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddComponentCommand(opts))
	cmd.AddCommand(NewAddSetupCommand(opts))
	cmd.AddCommand(NewAddVersionCommand(opts))
	cmd.AddCommand(NewAddTestResultCommand(opts))
	cmd.AddCommand(NewLatestCommand(opts))
	cmd.AddCommand(NewVersionsCommand(opts))
	cmd.AddCommand(NewSetupComponentsCommand(opts))
	cmd.AddCommand(NewSetupTestsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
