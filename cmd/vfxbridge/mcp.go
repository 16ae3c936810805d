package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/vfxbridge/internal/cli"
	"github.com/aretw0/vfxbridge/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Serves the actions as MCP tools (vfx_graph, vfx_batch, vfx_recipe) and
the action and recipe lists as resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			transport := rt.Config.MCP.Transport
			if cmd.Flags().Changed("transport") {
				transport, _ = cmd.Flags().GetString("transport")
			}
			port := rt.Config.MCP.Port
			if cmd.Flags().Changed("port") {
				port, _ = cmd.Flags().GetInt("port")
			}

			srv := mcp.NewServer(rt.Bridge, mcp.WithLogger(rt.Logger))
			switch transport {
			case "stdio":
				// Logs must not corrupt JSON-RPC on stdout.
				log.SetOutput(os.Stderr)
				rt.Logger.Info("Starting MCP server (stdio)")
				return srv.ServeStdio()
			case "sse":
				ctx := cli.NewSignalContext(cmd.Context())
				defer ctx.Cancel()
				if err := srv.ServeSSE(ctx, fmt.Sprintf(":%d", port)); err != nil {
					return err
				}
				rt.Logger.Info("MCP server stopped", "signal", ctx.Signal())
				return nil
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse' (overrides mcp.transport)")
	cmd.Flags().Int("port", 8081, "Port to listen on, SSE only (overrides mcp.port)")
	return cmd
}
