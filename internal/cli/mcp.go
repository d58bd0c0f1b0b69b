package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"AgentKit-Chain/internal/mcpserver"
)

func newMCPCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve tools and actions as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, opts, true)
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(cmd.Context()))

			server := mcpserver.New(app.Config.MCP, app.Tools, app.Actions)
			if err := server.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
				return exitError(exitRuntime, "MCP 服务异常退出: %s", err)
			}
			return nil
		},
	}
}
