package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"viper/internal/driver"
	"viper/internal/project/dag"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [path]",
		Short: "Print the import layers of a project, or its first cycle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := targetArg(args)
			info, err := os.Stat(target)
			if err != nil {
				return err
			}
			var src *driver.Sources
			if info.IsDir() {
				src, err = driver.LoadDir(cmd.Context(), target, 0)
			} else {
				src, err = driver.LoadFile(cmd.Context(), target)
			}
			if err != nil {
				return err
			}
			plan := driver.NewPlan(src.Units)
			out := cmd.OutOrStdout()
			var cyc *dag.CycleError
			if err := plan.Check(); errors.As(err, &cyc) {
				fmt.Fprintf(out, "cycle: %s\n", strings.Join(cyc.Path, " -> "))
				if blocked := plan.Blocked(); len(blocked) > 0 {
					fmt.Fprintf(out, "blocked: %s\n", strings.Join(blocked, ", "))
				}
				return errHalted
			}
			for i, layer := range plan.Layers() {
				fmt.Fprintf(out, "%d: %s\n", i+1, strings.Join(layer, " "))
			}
			return nil
		},
	}
}
