package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath 指定配置文件路径的环境变量。
const EnvConfigPath = "AGENTKIT_CONFIG"

// DefaultPath 在未设置环境变量时使用。
var DefaultPath = filepath.Join("configs", "agentkit.yaml")

// Config 描述 agentkitd 启动阶段需要加载的全部配置。
type Config struct {
	Server     ServerConfig         `yaml:"server"`
	Auth       AuthConfig           `yaml:"auth"`
	Logging    LoggingConfig        `yaml:"logging"`
	Kits       map[string]KitConfig `yaml:"kits"`
	DefaultKit string               `yaml:"default_kit"`
	Journal    JournalConfig        `yaml:"journal"`
	Telemetry  TelemetryConfig      `yaml:"telemetry"`
	MCP        MCPConfig            `yaml:"mcp"`
	Runtime    RuntimeConfig        `yaml:"runtime"`
}

// ServerConfig 控制 HTTP API 的监听地址。
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MetricsAddress 非空时额外启动独立的 /metrics 监听。
	MetricsAddress string `yaml:"metrics_address"`
}

// AuthConfig 控制 HTTP API 的身份认证，mode 取值 disabled 或 api_key。
type AuthConfig struct {
	Mode string         `yaml:"mode"`
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig 描述一个静态 API Key 及其权限。
type APIKeyConfig struct {
	Name        string   `yaml:"name"`
	Key         string   `yaml:"key"`
	Permissions []string `yaml:"permissions"`
}

// LoggingConfig 对应 pkg/logger 的配置。
type LoggingConfig struct {
	Level   string      `yaml:"level"`
	Format  string      `yaml:"format"`
	Outputs []string    `yaml:"outputs"`
	Audit   AuditConfig `yaml:"audit"`
}

// AuditConfig 控制审计日志的滚动策略。
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// KitConfig 描述一个 agent kit 网关。
type KitConfig struct {
	Endpoint    string            `yaml:"endpoint"`
	Timeout     time.Duration     `yaml:"timeout"`
	Headers     map[string]string `yaml:"headers"`
	Description string            `yaml:"description"`
}

// JournalConfig 选择调用记录的存储驱动。
type JournalConfig struct {
	Driver   string         `yaml:"driver"`
	DSN      string         `yaml:"dsn"`
	Capacity int            `yaml:"capacity"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RedisConfig 描述 Redis 连接参数。
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// RabbitMQConfig 描述 RabbitMQ 连接参数。
type RabbitMQConfig struct {
	URL     string `yaml:"url"`
	Queue   string `yaml:"queue"`
	Durable bool   `yaml:"durable"`
}

// TelemetryConfig 控制 OpenTelemetry 导出。
type TelemetryConfig struct {
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// MCPConfig 描述 MCP 服务端的元信息。
type MCPConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `yaml:"data_dir"`
}

// ResolvePath 返回显式路径、环境变量或默认路径。
func ResolvePath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load 负责解析指定路径的 YAML 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg, err := Parse(content, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse 解析 YAML 内容，相对路径以 baseDir 为基准。
func Parse(content []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults(baseDir)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}

	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	if c.Auth.Mode == "" {
		c.Auth.Mode = "disabled"
	}
	for i := range c.Auth.Keys {
		c.Auth.Keys[i].Key = os.ExpandEnv(c.Auth.Keys[i].Key)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Kits == nil {
		c.Kits = map[string]KitConfig{}
	}
	for name, kit := range c.Kits {
		if kit.Timeout <= 0 {
			kit.Timeout = 30 * time.Second
		}
		c.Kits[name] = kit
	}

	c.Journal.Driver = strings.ToLower(strings.TrimSpace(c.Journal.Driver))
	if c.Journal.Driver == "" {
		c.Journal.Driver = "memory"
	}
	if c.Journal.Capacity <= 0 {
		c.Journal.Capacity = 1000
	}
	if c.Journal.Redis.Key == "" {
		c.Journal.Redis.Key = "agentkit:invocations"
	}
	if c.Journal.RabbitMQ.Queue == "" {
		c.Journal.RabbitMQ.Queue = "agentkit.invocations"
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "agentkitd"
	}
	if c.Telemetry.SampleRatio <= 0 || c.Telemetry.SampleRatio > 1 {
		c.Telemetry.SampleRatio = 1
	}

	if c.MCP.Name == "" {
		c.MCP.Name = "agentkit"
	}
	if c.MCP.Version == "" {
		c.MCP.Version = "0.1.0"
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}

	// 相对路径统一以配置文件所在目录为基准。
	if c.Logging.Audit.Path == "" {
		c.Logging.Audit.Path = filepath.Join(c.Runtime.DataDir, "audit.log")
	} else if !filepath.IsAbs(c.Logging.Audit.Path) {
		c.Logging.Audit.Path = filepath.Join(baseDir, c.Logging.Audit.Path)
	}
	for i, out := range c.Logging.Outputs {
		if out != "stdout" && out != "stderr" && !filepath.IsAbs(out) {
			c.Logging.Outputs[i] = filepath.Join(baseDir, out)
		}
	}

	if c.Journal.Driver == "sqlite" && c.Journal.DSN == "" {
		c.Journal.DSN = filepath.Join(c.Runtime.DataDir, "journal.db")
	}
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case "disabled":
	case "api_key":
		if len(c.Auth.Keys) == 0 {
			return errors.New("api_key 认证需要配置 auth.keys")
		}
	default:
		return fmt.Errorf("未知的认证模式: %s", c.Auth.Mode)
	}
	if c.DefaultKit != "" {
		if _, ok := c.Kits[c.DefaultKit]; !ok {
			return fmt.Errorf("默认 kit %s 未在配置中找到", c.DefaultKit)
		}
	}
	switch c.Journal.Driver {
	case "memory", "sqlite", "none":
	case "mysql":
		if c.Journal.DSN == "" {
			return errors.New("mysql 调用记录需要配置 journal.dsn")
		}
	case "redis":
		if c.Journal.Redis.Address == "" {
			return errors.New("redis 调用记录需要配置 journal.redis.address")
		}
	case "rabbitmq":
		if c.Journal.RabbitMQ.URL == "" {
			return errors.New("rabbitmq 调用记录需要配置 journal.rabbitmq.url")
		}
	default:
		return fmt.Errorf("未知的调用记录驱动: %s", c.Journal.Driver)
	}
	return nil
}
