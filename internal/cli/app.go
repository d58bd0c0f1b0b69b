package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"AgentKit-Chain/internal/actions"
	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/internal/invocation"
	"AgentKit-Chain/internal/journal"
	"AgentKit-Chain/internal/kit"
	"AgentKit-Chain/internal/kit/registry"
	"AgentKit-Chain/internal/observability/metrics"
	"AgentKit-Chain/internal/observability/telemetry"
	"AgentKit-Chain/internal/tools"
	"AgentKit-Chain/pkg/logger"
)

// App 汇总一次进程运行所需的全部组件。
type App struct {
	Config  *config.Config
	Kits    *registry.Registry
	Journal journal.Journal
	Metrics *metrics.Collector
	Tools   []tools.Tool
	Actions *actions.Registry

	recorder *invocation.Fanout
	shutdown telemetry.ShutdownFunc
}

// Build 按配置依次初始化 kit 网关、调用记录、遥测与工具集。
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	app := &App{Config: cfg, Metrics: opts.Metrics}
	if app.Metrics == nil {
		app.Metrics = metrics.Default
	}

	var defaultKit kit.Kit
	if len(cfg.Kits) > 0 {
		kits, err := registry.New(ctx, cfg.Kits, cfg.DefaultKit, registry.WithDialer(opts.Dialer))
		if err != nil {
			return nil, err
		}
		app.Kits = kits
		if defaultKit, err = kits.Default(); err != nil {
			app.Close(ctx)
			return nil, err
		}
	} else {
		logger.L().Warn("未配置 agent kit 网关，工具与动作将返回初始化错误")
	}

	j, err := journal.Open(ctx, cfg.Journal)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.Journal = j

	observer, shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.shutdown = shutdown

	var journalRecorder invocation.Recorder
	if j != nil {
		journalRecorder = j
	}
	app.recorder = invocation.NewFanout(journalRecorder, observer, app.Metrics)

	app.Tools = tools.All(defaultKit, tools.WithRecorder(app.recorder))
	app.Actions = actions.NewRegistry(defaultKit, []map[string]actions.Action{actions.AlloraActions()}, actions.WithRecorder(app.recorder))

	logger.L().Info("组件初始化完成",
		slog.String("default_kit", app.Kits.DefaultName()),
		slog.String("journal", cfg.Journal.Driver),
		slog.Int("tools", len(app.Tools)),
		slog.Int("actions", len(app.Actions.Names())),
	)
	return app, nil
}

// Lister 返回可查询的调用记录；驱动不支持查询时为 nil。
func (a *App) Lister() invocation.Lister {
	if _, ok := a.Journal.(invocation.Lister); !ok {
		return nil
	}
	return a.recorder
}

// Close 释放全部外部资源。
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	a.Kits.Close()
	// 日志最后关闭，前面的关闭过程仍可写日志。
	errs = append(errs, logger.Sync())
	return errors.Join(errs...)
}
