package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/pkg/adapters/mcp"
)

func newMCPCmd(flags *globalFlags) *cobra.Command {
	var (
		transport string
		port      int
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Starts Arbor as an MCP Server so AI agents can validate and execute workflows as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs must never reach stdout: it carries JSON-RPC.
			cmd.SetErr(os.Stderr)
			log.SetOutput(os.Stderr)

			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			opts := []mcp.Option{mcp.WithAuditStore(app.Store), mcp.WithLogger(app.Logger)}
			if app.Loader != nil {
				opts = append(opts, mcp.WithLoader(app.Loader))
			}
			srv := mcp.NewServer(app.Engine, opts...)

			switch transport {
			case "stdio":
				app.Logger.Info("Starting Arbor MCP Server (Stdio)")
				return srv.ServeStdio()
			case "sse":
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				addr := fmt.Sprintf(":%d", port)
				return srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port))
			default:
				return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().IntVar(&port, "port", 8081, "Port to listen on (only for SSE)")
	return cmd
}
