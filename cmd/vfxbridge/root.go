package main

import (
	"os"

	"github.com/aretw0/vfxbridge/internal/cli"
	"github.com/aretw0/vfxbridge/internal/config"
	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/internal/presentation/tui"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vfxbridge",
		Short: "vfxbridge edits VFX graphs through a scriptable action API",
		Long: `vfxbridge loads VFX graph assets and applies actions to them: adding
nodes and blocks, linking contexts, running batches and recipes. The same
actions are served over HTTP and the Model Context Protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default: vfxbridge.yaml in . or $HOME/.vfxbridge)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides log.level)")
	root.PersistentFlags().StringP("output", "o", cli.FormatText, "Output format: text or json")

	root.AddCommand(
		newExecCmd(),
		newBatchCmd(),
		newRecipeCmd(),
		newNewCmd(),
		newInspectCmd(),
		newActionsCmd(),
		newMCPCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config named by --config and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// loadRuntime builds the Bridge for a command. Callers close it.
func loadRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.ParseLevel(cfg.Log.Level))
	return cli.NewRuntime(cfg, logger)
}

// printResult writes res in the --output format and reports a failed
// envelope as an error.
func printResult(cmd *cobra.Command, res domain.Result) error {
	format, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()
	terminal := out == os.Stdout && tui.IsTerminal()
	if err := cli.PrintResult(out, res, format, terminal); err != nil {
		return err
	}
	return cli.Check(res)
}
