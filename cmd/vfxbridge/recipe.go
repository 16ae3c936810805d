package main

import (
	"github.com/spf13/cobra"
)

func newRecipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe [name]",
		Short: "Build an effect from a recipe, or list recipes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if len(args) == 0 {
				return printResult(cmd, rt.Bridge.Execute(cmd.Context(), "list_recipes", nil))
			}

			params, err := objectFlag(cmd, "args")
			if err != nil {
				return err
			}
			params["path"], _ = cmd.Flags().GetString("path")
			params["recipe"] = args[0]
			return printResult(cmd, rt.Bridge.Execute(cmd.Context(), "create_from_recipe", params))
		},
	}
	cmd.Flags().String("path", "", "Graph asset path")
	cmd.Flags().String("args", "", "JSON object with recipe arguments")
	return cmd
}
