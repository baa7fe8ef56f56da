package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"viper/internal/version"
)

// errHalted is returned by commands whose compilation surfaced a blocking
// diagnostic; the diagnostics themselves are already printed.
var errHalted = errors.New("compilation halted")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "viper",
		Short:         "Static type inference for a Python subset",
		Long:          `viper infers types for Python-syntax programs, synthesizes structural interfaces and reports what cannot be typed`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics to show (0 = all)")
	pf.String("trace", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-out", "-", "trace output file, - for stderr")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")

	root.AddCommand(newCheckCmd(), newBuildCmd(), newGraphCmd(), newVersionCmd())
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errHalted) {
			fmt.Fprintf(os.Stderr, "viper: %v\n", err)
		}
		os.Exit(1)
	}
}
