package main

import (
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run a batch file (YAML or JSON)",
		Long: `Runs every operation of a batch file against one graph asset and saves it
once. The file holds a path and a list of operations; --path overrides the
file's path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := batch.ReadFile(args[0])
			if err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("path"); path != "" {
				f.Path = path
			}

			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res := rt.Bridge.Execute(cmd.Context(), "batch_execute", map[string]any{
				"path":       f.Path,
				"operations": f.Operations,
			})
			return printResult(cmd, res)
		},
	}
	cmd.Flags().String("path", "", "Graph asset path (overrides the file)")
	return cmd
}
