// Command nockit is the operator-facing CLI for running and observing
// a nockchain node and wallet : setup, wallet, mining,
// network, logs, monitor, dev and bench verb groups over a single
// persisted configuration directory.
//
// One rootCmd with
// persistent global flags, cobra.OnInitialize for shared setup, and a
// `var xCmd = &cobra.Command{...}` per verb group added to the root.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/errs"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagConfigDir string
	flagVerbose   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(errs.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "nockit",
	Short:         "Nockit - operator toolkit for a nockchain node and wallet",
	Long:          `Nockit runs, observes and benchmarks a nockchain node and wallet: setup, key management, mining control, network diagnostics, log tooling, live monitoring and local benchmarking in one binary.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("nockit version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: NOCKIT_CONFIG_DIR or the platform config directory)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "print structured detail on error")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(miningCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(devCmd)
	rootCmd.AddCommand(benchCmd)
}

// reportError writes a single-line error summary, and on --verbose a
// structured multi-line detail: the full wrapped error chain's
// Error() string.
func reportError(err error) {
	kind, summary := "other", err.Error()
	var typed *errs.Error
	if errors.As(err, &typed) {
		kind, summary = string(typed.Kind), typed.Summary
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", kind, summary)
	if flagVerbose {
		fmt.Fprintf(os.Stderr, "detail:\n  %v\n", err)
	}
}
