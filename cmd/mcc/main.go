// Package main implements the mcc CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mcc/internal/version"
)

// errDiagnosticsReported fails a command whose diagnostics were already printed.
var errDiagnosticsReported = errors.New("compilation failed")

var rootCmd = &cobra.Command{
	Use:   "mcc",
	Short: "Incremental compiler for a subset of C",
	Long:  `mcc compiles a subset of C to x86-64 assembly, reusing work between runs`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return prepareSession(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// main runs the root command. Any error, including reported diagnostics,
// exits with status 1.
func main() {
	setupRoot()
	err := rootCmd.Execute()
	closeSession(rootCmd)
	if err != nil {
		if !errors.Is(err, errDiagnosticsReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

var setupOnce sync.Once

// setupRoot registers subcommands and global flags.
func setupRoot() {
	setupOnce.Do(func() {
		rootCmd.Version = version.Version

		rootCmd.AddCommand(compileCmd)
		rootCmd.AddCommand(emitCmd)
		rootCmd.AddCommand(diagCmd)
		rootCmd.AddCommand(versionCmd)

		rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
		rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
		rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per file (0 = unlimited)")
		rootCmd.PersistentFlags().String("ui", "auto", "progress interface (auto|on|off)")
		rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
		rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
		rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
		rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "events kept by the ring tracer")
		rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")
		rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
		rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
		rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
	})
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
