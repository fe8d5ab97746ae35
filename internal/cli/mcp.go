package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/floatchat/backend/internal/mcp"
	"github.com/floatchat/backend/pkg/logger"
)

func NewMCPCommand(opts *RootOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask_argo and data_summary tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			server := mcp.NewServer(version, app.Engine, logger.Named("mcp"))
			return server.ServeStdio(ctx, os.Stdin, os.Stdout)
		},
	}
}
