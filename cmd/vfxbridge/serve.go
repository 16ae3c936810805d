package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vfxbridge"
	"github.com/aretw0/vfxbridge/internal/cli"
	"github.com/aretw0/vfxbridge/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves POST /v1/actions/{action}, GET /v1/actions, /v1/events, /openapi.yaml
and /metrics. --mcp-port also serves the MCP SSE transport; --watch reloads
graphs edited on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			port := rt.Config.HTTP.Port
			if cmd.Flags().Changed("port") {
				port, _ = cmd.Flags().GetInt("port")
			}
			opts := cli.ServeOptions{
				HTTPAddr: fmt.Sprintf(":%d", port),
				Watch:    rt.Config.Watch.Enabled,
			}
			if cmd.Flags().Changed("watch") {
				opts.Watch, _ = cmd.Flags().GetBool("watch")
			}
			if mcpPort, _ := cmd.Flags().GetInt("mcp-port"); mcpPort > 0 {
				opts.MCPAddr = fmt.Sprintf(":%d", mcpPort)
			}

			tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(vfxbridge.Version))
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			if err := cli.Serve(ctx, rt, opts); err != nil {
				return err
			}
			rt.Logger.Info("Server stopped gracefully", "signal", ctx.Signal())
			return nil
		},
	}
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides http.port)")
	cmd.Flags().Int("mcp-port", 0, "Also serve MCP over SSE on this port")
	cmd.Flags().Bool("watch", false, "Reload graphs when the file store changes (overrides watch.enabled)")
	return cmd
}
