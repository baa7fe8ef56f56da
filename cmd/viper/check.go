package main

import (
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Infer types and report diagnostics for a file or directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := compilePath(cmd, targetArg(args))
			if err != nil {
				return err
			}
			return run.report(cmd)
		},
	}
	addCompileFlags(cmd)
	return cmd
}

func targetArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
