package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"viper/internal/diagfmt"
	"viper/internal/driver"
	"viper/internal/observ"
	"viper/internal/project"
	"viper/internal/trace"
)

func addCompileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("format", "pretty", "diagnostics format (pretty|short|json|yaml)")
	f.String("entry", project.DefaultEntry, "entry module; every other module is a library")
	f.Int("max-iterations", project.DefaultMaxIterations, "solver iteration limit")
	f.Int("jobs", 0, "max parallel workers (0=auto)")
	f.Bool("no-report", false, "record diagnostics without surfacing them")
	f.Bool("no-warnings", false, "hide warnings")
	f.Bool("warnings-as-errors", false, "treat warnings as errors")
	f.Bool("with-notes", false, "include diagnostic notes in output")
	f.String("paths", "auto", "path display (auto|absolute|relative|basename)")
}

// compileRun is everything a command needs after compiling a path.
type compileRun struct {
	sources *driver.Sources
	session *driver.Session
	result  *driver.Result
	root    string
	timer   *observ.Timer
	tracer  trace.Tracer
}

// options merges viper.toml found above target with explicitly set flags;
// flags win.
func options(cmd *cobra.Command, target string) (driver.Options, string, error) {
	opts := driver.DefaultOptions()
	root := target
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		root = filepath.Dir(target)
	}
	manifest, ok, err := project.LoadManifest(root)
	if err != nil {
		return opts, "", err
	}
	if ok {
		opts = driver.OptionsFromConfig(manifest.Config)
		root = manifest.Root
	}

	f := cmd.Flags()
	if f.Changed("entry") {
		if opts.Entry, err = f.GetString("entry"); err != nil {
			return opts, "", fmt.Errorf("failed to get entry flag: %w", err)
		}
	}
	if f.Changed("max-iterations") {
		if opts.MaxIterations, err = f.GetInt("max-iterations"); err != nil {
			return opts, "", fmt.Errorf("failed to get max-iterations flag: %w", err)
		}
		if opts.MaxIterations <= 0 {
			return opts, "", fmt.Errorf("--max-iterations must be positive")
		}
	}
	if f.Changed("jobs") {
		if opts.Jobs, err = f.GetInt("jobs"); err != nil {
			return opts, "", fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	noReport, err := f.GetBool("no-report")
	if err != nil {
		return opts, "", fmt.Errorf("failed to get no-report flag: %w", err)
	}
	if noReport {
		opts.Reporting = false
	}
	noWarnings, err := f.GetBool("no-warnings")
	if err != nil {
		return opts, "", fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := f.GetBool("warnings-as-errors")
	if err != nil {
		return opts, "", fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return opts, "", fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	opts.HideWarnings = opts.HideWarnings || noWarnings
	opts.WarningsAsErrors = opts.WarningsAsErrors || warningsAsErrors

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("max-diagnostics") {
		if opts.MaxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
			return opts, "", fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	return opts, root, nil
}

// compilePath loads target (a .py file or a directory) and compiles it.
func compilePath(cmd *cobra.Command, target string) (*compileRun, error) {
	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	opts, root, err := options(cmd, target)
	if err != nil {
		return nil, err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	run := &compileRun{root: root, tracer: tracer}
	if timings {
		run.timer = observ.NewTimer()
		opts.Timer = run.timer
	}
	opts.Tracer = tracer

	ctx := cmd.Context()
	idx := run.timer.Begin("load")
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		run.sources, err = driver.LoadDir(ctx, target, opts.Jobs)
	} else {
		run.sources, err = driver.LoadFile(ctx, target)
		if err == nil && !cmd.Flags().Changed("entry") && run.sources.Entry != "" {
			opts.Entry = run.sources.Entry
		}
	}
	if err != nil {
		return nil, err
	}
	run.timer.End(idx, fmt.Sprintf("%d files", len(run.sources.Units)))

	run.session = driver.NewSession(opts)
	run.session.Record(run.sources.Diags...)
	run.result, err = run.session.Compile(ctx, run.sources.Units)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// report prints the surfaced diagnostics, timings and, on halt, the trace
// ring. It returns errHalted when the compilation halted.
func (r *compileRun) report(cmd *cobra.Command) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	f, err := diagfmt.ParseFormat(format)
	if err != nil {
		return err
	}
	paths, err := cmd.Flags().GetString("paths")
	if err != nil {
		return fmt.Errorf("failed to get paths flag: %w", err)
	}
	pathMode, err := diagfmt.ParsePathMode(paths)
	if err != nil {
		return err
	}
	notes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	out := cmd.OutOrStdout()
	colored, err := useColor(colorMode, out)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	opts := diagfmt.Options{
		Color:            colored,
		PathMode:         pathMode,
		Root:             r.root,
		Notes:            notes,
		IncludePositions: true,
	}
	if err := diagfmt.Render(out, f, r.result.Surfaced, r.sources.Files, opts); err != nil {
		return err
	}
	if r.timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), r.timer.Summary())
	}
	if r.result.Halted {
		dumpRing(cmd.ErrOrStderr(), r.tracer)
		return errHalted
	}
	if !quiet && f == diagfmt.FormatPretty {
		summary(out, r.result)
	}
	return nil
}

func summary(w io.Writer, res *driver.Result) {
	analysed := 0
	for _, m := range res.Modules {
		if m.Tree != nil {
			analysed++
		}
	}
	fmt.Fprintf(w, "checked %d modules (entry %s), %d diagnostics\n", analysed, res.Entry, len(res.Surfaced))
}
