package main

import (
	"fmt"

	"github.com/lk2023060901/xchat/app/probe/internal/runner"
	"github.com/lk2023060901/xchat/pkg/app"
	"github.com/lk2023060901/xchat/pkg/chat"
	"github.com/lk2023060901/xchat/pkg/logger"
	"github.com/lk2023060901/xchat/pkg/sentry"
)

// Config 探针服务配置
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// Client 聊天客户端配置模板，每个探针客户端复制一份
	Client chat.ClientConfig `mapstructure:"client"`

	// Probe 探针运行配置
	Probe runner.Config `mapstructure:"probe"`

	// Metrics 指标暴露配置
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Sentry 错误上报配置，DSN 为空时关闭
	Sentry sentry.Config `mapstructure:"sentry"`
}

// MetricsConfig Prometheus 暴露配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

func main() {
	var cfg Config
	if err := app.LoadConfig(&cfg); err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}

	application, err := InitProbeApp(&cfg, l)
	if err != nil {
		l.Error("failed to assemble probe application", "error", err)
		return
	}

	if err := application.Run(); err != nil {
		l.Error("probe exited with error", "error", err)
	}
}
