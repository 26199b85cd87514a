package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
)

func newGraphCmd(flags *globalFlags) *cobra.Command {
	var executionID string
	cmd := &cobra.Command{
		Use:   "graph <workflow-file|workflow-id>",
		Short: "Export the workflow as a Mermaid diagram",
		Long:  `Prints a Mermaid flowchart of the workflow. With --execution, node statuses of a stored run are overlaid.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			def, err := cli.LoadDefinition(cmd.Context(), app.Loader, args[0])
			if err != nil {
				return err
			}

			var overlay *graph.GraphOverlay
			if executionID != "" {
				nodes, err := app.Store.ListNodeExecutions(cmd.Context(), executionID)
				if err != nil {
					return err
				}
				overlay = &graph.GraphOverlay{Statuses: make(map[string]domain.NodeStatus, len(nodes))}
				for _, n := range nodes {
					overlay.Statuses[n.NodeID] = n.Status
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
			return nil
		},
	}
	cmd.Flags().StringVar(&executionID, "execution", "", "Overlay the node statuses of this execution")
	return cmd
}
