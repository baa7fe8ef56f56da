package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"viper/internal/trace"
)

// setupTracing reads the trace flags, attaches a tracer to the command
// context and returns it with a cleanup function.
func setupTracing(cmd *cobra.Command) (trace.Tracer, func(), error) {
	pf := cmd.Root().PersistentFlags()
	levelStr, err := pf.GetString("trace")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	out, err := pf.GetString("trace-out")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-out flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, err
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, err
	}
	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: out,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return tracer, cleanup, nil
}

// ringTail bounds the trace printed after a halt.
const ringTail = 200

// dumpRing prints the in-memory trace after a halted compilation.
func dumpRing(w io.Writer, tracer trace.Tracer) {
	ring := trace.RingOf(tracer)
	if ring == nil {
		return
	}
	fmt.Fprintln(w, "trace (most recent events):")
	if err := ring.Dump(w, trace.FormatText, ringTail); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
