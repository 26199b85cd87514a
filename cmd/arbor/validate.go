package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow-file>...",
		Short: "Check workflow files for structural problems",
		Long:  `Parses every file and reports missing Input or Output nodes, dangling edges, cycles and unwired Conditional nodes.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				problems, err := validateFile(path)
				if err != nil {
					problems = []string{err.Error()}
				}
				if len(problems) == 0 {
					fmt.Fprintf(out, "%s: valid\n", path)
					continue
				}
				invalid++
				fmt.Fprintf(out, "%s: %d problem(s)\n", path, len(problems))
				for _, p := range problems {
					fmt.Fprintf(out, "  - %s\n", p)
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d workflow(s) invalid", invalid, len(args))
			}
			return nil
		},
	}
}

func validateFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := arbor.ParseDefinition(data)
	if err != nil {
		return nil, err
	}
	return arbor.Validate(def), nil
}
