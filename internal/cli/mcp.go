package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/leongj/azure-agents-cli/internal/mcpserver"
)

func newMCPCommand(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve agents, threads, runs and files as MCP tools over stdio",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := opts.service(raw)
			if err != nil {
				return err
			}
			server := mcpserver.New(service, version)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			opts.logger.Info("mcp server starting", "transport", "stdio", "version", version)
			return server.Run(ctx, &sdkmcp.StdioTransport{})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "return service records without rewriting")
	return cmd
}
