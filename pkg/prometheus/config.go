package prometheus

import (
	"fmt"
	"time"
)

// Config 指标客户端配置
type Config struct {
	// 指标名前缀
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
	Subsystem string `json:"subsystem" yaml:"subsystem" mapstructure:"subsystem"`

	// 独立指标端口
	HTTPServer HTTPServerConfig `json:"http_server" yaml:"http_server" mapstructure:"http_server"`

	// 运行时采集器
	EnableGoCollector      bool `json:"enable_go_collector" yaml:"enable_go_collector" mapstructure:"enable_go_collector"`
	EnableProcessCollector bool `json:"enable_process_collector" yaml:"enable_process_collector" mapstructure:"enable_process_collector"`
}

// HTTPServerConfig 指标端口配置
type HTTPServerConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Addr    string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	Path    string        `json:"path" yaml:"path" mapstructure:"path"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig 缺省配置，在 :9090/metrics 暴露指标
func DefaultConfig() *Config {
	return &Config{
		Namespace: "app",
		HTTPServer: HTTPServerConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
			Timeout: 10 * time.Second,
		},
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	}
}

// Validate 校验配置并补全缺省值
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace required", ErrInvalidConfig)
	}

	if c.HTTPServer.Enabled {
		if c.HTTPServer.Addr == "" {
			return fmt.Errorf("%w: http server addr required", ErrInvalidConfig)
		}
		if c.HTTPServer.Path == "" {
			c.HTTPServer.Path = "/metrics"
		}
		if c.HTTPServer.Timeout == 0 {
			c.HTTPServer.Timeout = 10 * time.Second
		}
	}

	return nil
}
