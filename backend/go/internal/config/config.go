package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBase 是题本后端 API 的默认地址。
	DefaultAPIBase = "https://tiben.zocenet.com/api"

	// EnvAPIBase 用于覆盖配置文件中的后端地址。
	EnvAPIBase = "TIBEN_API_BASE"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称，同时作为 MCP 服务名
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// BackendConfig 定义了远程后端 API 的连接配置。
type BackendConfig struct {
	APIBase string `yaml:"apiBase"` // 后端 API 基础地址，不带结尾的 "/"
	Timeout string `yaml:"timeout"` // 单次请求超时，例如 "60s"；为空表示不设超时
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`    // 入站限流（仅 HTTP 传输）
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"` // 出站熔断
	Retry          RetryConfig          `yaml:"retry"`          // 出站重试
}

// RateLimiterConfig 定义了限流器的配置，目前只支持令牌桶算法。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// RetryConfig 定义了指数退避重试的配置。
type RetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MaxRetries   int     `yaml:"maxRetries"`
	InitialDelay string  `yaml:"initialDelay"` // 例如: "1s"
	MaxDelay     string  `yaml:"maxDelay"`     // 例如: "10s"
	Multiplier   float64 `yaml:"multiplier"`
}

// KafkaConfig 定义了工具调用审计流的 Kafka 配置。
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 审计主题
}

// AuditConfig 包含审计输出的配置。
type AuditConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Backend    BackendConfig    `yaml:"backend"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Audit      AuditConfig      `yaml:"audit"`
}

// Default 返回内置的默认配置。重试、熔断、限流与审计默认全部关闭。
func Default() *AppConfig {
	return &AppConfig{
		App: AppInfo{
			Name:        "tiben-mcp",
			Version:     "1.0.17",
			Environment: "production",
		},
		Logger: LoggerConfig{Level: "info"},
		Backend: BackendConfig{
			APIBase: DefaultAPIBase,
		},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{
				TokenBucket: TokenBucketConfig{Rate: 10, Capacity: 20},
			},
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          "30s",
			},
			Retry: RetryConfig{
				MaxRetries:   3,
				InitialDelay: "1s",
				MaxDelay:     "10s",
				Multiplier:   2,
			},
		},
		Audit: AuditConfig{
			Kafka: KafkaConfig{Topic: "tiben_tool_calls"},
		},
	}
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 文件中未出现的字段保留 Default() 中的值，最后应用环境变量覆盖。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.ApplyEnv()
	cfg.Backend.APIBase = strings.TrimRight(cfg.Backend.APIBase, "/")
	return cfg, nil
}

// LoadOrDefault 与 LoadConfig 相同，但配置文件不存在时返回默认配置。
func LoadOrDefault(path string) (*AppConfig, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return cfg, err
}

// ApplyEnv 使用环境变量覆盖配置。
func (c *AppConfig) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		c.Backend.APIBase = strings.TrimRight(v, "/")
	}
}
