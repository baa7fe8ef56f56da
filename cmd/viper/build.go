package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"viper/internal/bundle"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Compile and write the typed bundle",
		Long:  `Compile a file or directory and write the bundle (solved signatures, coercions, interfaces). Nothing is written when the compilation halts.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBuild,
	}
	addCompileFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "bundle path (default <entry>.vpb)")
	cmd.Flags().Bool("emit-yaml", false, "also write a YAML dump next to the bundle")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	run, err := compilePath(cmd, targetArg(args))
	if err != nil {
		return err
	}
	if err := run.report(cmd); err != nil {
		return err
	}

	out, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if out == "" {
		out = filepath.Join(run.root, strings.ReplaceAll(run.result.Entry, ".", "_")+".vpb")
	}
	b := bundle.FromResult(run.result, run.sources.Files)
	if err := bundle.WriteFile(out, b); err != nil {
		return err
	}

	emitYAML, err := cmd.Flags().GetBool("emit-yaml")
	if err != nil {
		return fmt.Errorf("failed to get emit-yaml flag: %w", err)
	}
	if emitYAML {
		f, err := os.Create(strings.TrimSuffix(out, filepath.Ext(out)) + ".yaml")
		if err != nil {
			return err
		}
		defer f.Close()
		if err := bundle.WriteYAML(f, b); err != nil {
			return err
		}
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	}
	return nil
}
