package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"AgentKit-Chain/internal/api"
	"AgentKit-Chain/internal/auth"
	"AgentKit-Chain/pkg/logger"
)

func newServeCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools and actions over REST",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer app.Close(context.WithoutCancel(cmd.Context()))

			addr := app.Config.Server.Address
			if override, _ := cmd.Flags().GetString("addr"); override != "" {
				addr = override
			}
			authSvc, err := auth.NewService(app.Config.Auth)
			if err != nil {
				return exitError(exitConfig, "初始化认证失败: %s", err)
			}
			server := api.NewServer(addr, app.Tools, app.Actions,
				api.WithAuth(authSvc),
				api.WithJournal(app.Lister()),
				api.WithMetrics(app.Metrics),
				api.WithShutdownTimeout(app.Config.Server.ShutdownTimeout),
			)
			if metricsAddr := app.Config.Server.MetricsAddress; metricsAddr != "" {
				go func() {
					if err := app.Metrics.StartServer(cmd.Context(), metricsAddr); err != nil && !errors.Is(err, context.Canceled) {
						logger.L().Error("指标服务异常退出", slog.String("address", metricsAddr), slog.Any("error", err))
					}
				}()
			}
			if err := server.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return exitError(exitRuntime, "API 服务异常退出: %s", err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address, overrides server.address")
	return cmd
}
