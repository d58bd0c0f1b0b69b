// Package cli wires configuration, kits, journal and telemetry into the
// agentkitd command tree.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/internal/kit/registry"
	"AgentKit-Chain/internal/observability/metrics"
	"AgentKit-Chain/pkg/logger"
)

// Options customises how commands build the App.
type Options struct {
	// Dialer replaces the JSON-RPC gateway dialer.
	Dialer registry.Dialer
	// Metrics replaces metrics.Default.
	Metrics *metrics.Collector
}

// NewRootCmd creates the agentkitd command tree.
func NewRootCmd(version string, opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:          "agentkitd",
		Short:        "Agent kit tools and actions over REST, MCP and the command line",
		SilenceUsage: true,
		Version:      version,
	}
	root.PersistentFlags().String("config", "", fmt.Sprintf("Path to YAML config (default: $%s or %s)", config.EnvConfigPath, config.DefaultPath))

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMCPCmd(opts))
	root.AddCommand(newToolsCmd(opts))
	root.AddCommand(newActionsCmd(opts))
	return root
}

// loadConfig resolves --config and initialises the loggers. Commands that
// write results to stdout log to stderr unless outputs are configured.
func loadConfig(cmd *cobra.Command, logToStderr bool) (*config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.ResolvePath(explicit))
	if err != nil {
		return nil, exitError(exitConfig, "%s", err)
	}

	outputs := cfg.Logging.Outputs
	if len(outputs) == 0 && logToStderr {
		outputs = []string{"stderr"}
	}
	err = logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	})
	if err != nil && !errors.Is(err, logger.ErrInitialised) {
		return nil, exitError(exitConfig, "初始化日志失败: %s", err)
	}
	return cfg, nil
}

func buildApp(cmd *cobra.Command, opts Options, logToStderr bool) (*App, error) {
	cfg, err := loadConfig(cmd, logToStderr)
	if err != nil {
		return nil, err
	}
	app, err := Build(cmd.Context(), cfg, opts)
	if err != nil {
		return nil, exitError(exitRuntime, "%s", err)
	}
	return app, nil
}
