package main

import (
	"fmt"

	"github.com/aretw0/vfxbridge/internal/presentation/graph"
	"github.com/aretw0/vfxbridge/internal/validator"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Describe a graph asset",
		Long:  `Prints the graph summary, or a Mermaid diagram (graph TD) of contexts, operators and links with --mermaid.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if mermaid, _ := cmd.Flags().GetBool("mermaid"); !mermaid {
				return printResult(cmd, rt.Bridge.Execute(cmd.Context(), "get_graph_info", map[string]any{"path": args[0]}))
			}

			path, err := validator.NormalizePath(args[0])
			if err != nil {
				return err
			}
			eng := rt.Bridge.Engine()
			asset, err := eng.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(graph.Capture(eng, asset.Root())))
			return nil
		},
	}
	cmd.Flags().Bool("mermaid", false, "Print a Mermaid diagram")
	return cmd
}
