// Package cmd implements the codeindex CLI (cobra): `index` ingests a
// directory into the document store, `query` answers read-only lookups
// against an already-built index.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/analytics"
	"github.com/shivasurya/code-pathfinder/codeindex/internal/output"
)

var (
	verboseFlag bool
	debugFlag   bool
	Version     = "0.1.0"
	GitCommit   = "HEAD"
)

var rootCmd = &cobra.Command{
	Use:   "codeindex",
	Short: "Multi-language code intelligence indexer",
	Long: `codeindex parses a multi-language codebase into a symbol/relationship
index (definitions, calls, inheritance, imports) and answers structural
queries against it: symbol lookup, callers, callees, impact analysis.

Supports Go, Python, TypeScript, Rust, PHP, C#, and C++.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		disableMetrics, _ := cmd.Flags().GetBool("disable-metrics")
		verboseFlag, _ = cmd.Flags().GetBool("verbose")
		debugFlag, _ = cmd.Flags().GetBool("debug")
		analytics.LoadEnvFile()
		analytics.Init(disableMetrics)
		analytics.SetVersion(Version)

		if cmd.Name() == "help" || (len(os.Args) == 1 || (len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h"))) {
			noBanner, _ := cmd.Flags().GetBool("no-banner")
			logger := output.NewLogger(output.VerbosityDefault)
			if output.ShouldShowBanner(logger.IsTTY(), noBanner) {
				output.PrintBanner(logger.GetWriter(), Version, output.DefaultBannerOptions())
			} else if logger.IsTTY() && !noBanner {
				fmt.Fprintln(os.Stderr, output.GetCompactBanner(Version))
				fmt.Fprintln(os.Stderr)
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// verbosityFromFlags maps --verbose/--debug to output.VerbosityLevel;
// debug wins over verbose.
func verbosityFromFlags() output.VerbosityLevel {
	switch {
	case debugFlag:
		return output.VerbosityDebug
	case verboseFlag:
		return output.VerbosityVerbose
	default:
		return output.VerbosityDefault
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("disable-metrics", false, "Disable anonymous usage metrics")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug output")
	rootCmd.PersistentFlags().Bool("no-banner", false, "Disable startup banner")
}
