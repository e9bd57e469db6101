package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes the analyze_pdf, backend_status and export_results tools
and the gapfinder://results/latest resource.

By default, the server communicates over stdio using JSON-RPC. Use --port
to start an HTTP server instead; Prometheus metrics are then served at
/metrics on the same port.

Prompt templates in the prompts directory are reloaded when they change.
The cloud API key is taken from --api-key or GAPFINDER_API_KEY; the server
never prompts for it.

Examples:
  # Stdio mode (default)
  gapfinder mcp serve

  # HTTP mode with metrics
  gapfinder mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("api-key", "", "cloud API key (or set "+EnvAPIKey+")")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	keyFlag, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return fmt.Errorf("getting api-key flag: %w", err)
	}
	apiKey, err := resolveAPIKey(cmd, keyFlag, "", "", false)
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Analysis: analysisService,
		Backends: backendService,
		Export:   exportService,
		APIKey:   apiKey,
	}
	if port > 0 {
		ports.Metrics = metricsHandler
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if promptWatcher != nil {
		go func() {
			if err := promptWatcher.Watch(cmd.Context(), nil); err != nil {
				logger.Warn("prompt watcher stopped: %v", err)
			}
		}()
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
