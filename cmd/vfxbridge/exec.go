package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <action>",
		Short: "Run one action",
		Long: `Runs a single action against a graph asset and prints its result envelope.

Example:
  vfxbridge exec add_node --path Assets/VFX/Fire.vfx --params '{"type":"VFXBasicSpawner"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := objectFlag(cmd, "params")
			if err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("path"); path != "" {
				params["path"] = path
			}

			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			return printResult(cmd, rt.Bridge.Execute(cmd.Context(), args[0], params))
		},
	}
	cmd.Flags().String("path", "", "Graph asset path")
	cmd.Flags().String("params", "", "JSON object with the action parameters")
	return cmd
}

// objectFlag decodes a flag holding a JSON object. An unset flag is empty.
func objectFlag(cmd *cobra.Command, name string) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString(name)
	out := map[string]any{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("--%s must be a JSON object: %w", name, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
