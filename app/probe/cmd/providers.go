package main

import (
	"time"

	"github.com/lk2023060901/xchat/app/probe/internal/runner"
	"github.com/lk2023060901/xchat/pkg/app"
	"github.com/lk2023060901/xchat/pkg/chat"
	"github.com/lk2023060901/xchat/pkg/logger"
	"github.com/lk2023060901/xchat/pkg/prometheus"
	"github.com/lk2023060901/xchat/pkg/sentry"
)

// provideClientConfig 提供聊天客户端配置模板
func provideClientConfig(cfg *Config) *chat.ClientConfig {
	return &cfg.Client
}

// provideProbeConfig 提供探针运行配置
func provideProbeConfig(cfg *Config) *runner.Config {
	return &cfg.Probe
}

// provideMetricsClient 提供指标客户端，未启用时为 nil
func provideMetricsClient(cfg *Config) (*prometheus.Client, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}

	addr := cfg.Metrics.Addr
	if addr == "" {
		addr = ":9090"
	}

	return prometheus.New(&prometheus.Config{
		Namespace: "probe",
		HTTPServer: prometheus.HTTPServerConfig{
			Enabled: true,
			Addr:    addr,
			Path:    cfg.Metrics.Path,
			Timeout: 10 * time.Second,
		},
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	})
}

// provideSentryClient 提供错误上报客户端，DSN 为空时为 nil
func provideSentryClient(cfg *Config) (*sentry.Client, error) {
	if cfg.Sentry.DSN == "" {
		return nil, nil
	}

	sentryCfg := sentry.DefaultConfig()
	sentryCfg.DSN = cfg.Sentry.DSN
	if cfg.Sentry.Environment != "" {
		sentryCfg.Environment = cfg.Sentry.Environment
	}
	return sentry.New(sentryCfg)
}

// provideRunnerOptions 组装探针选项，跳过未启用的组件
func provideRunnerOptions(promClient *prometheus.Client, sentryClient *sentry.Client) []runner.Option {
	var opts []runner.Option
	if promClient != nil {
		opts = append(opts, runner.WithMetrics(promClient))
	}
	if sentryClient != nil {
		opts = append(opts, runner.WithSentry(sentryClient))
	}
	return opts
}

// provideAppOptions 提供应用选项
func provideAppOptions(l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName("probe"),
		app.WithLogger(l),
	}
}

// provideAppComponents 装配服务与清理组件
func provideAppComponents(probe *runner.Runner, promClient *prometheus.Client, sentryClient *sentry.Client) app.AppComponents {
	comps := app.AppComponents{
		Servers: []app.Server{probe},
	}
	if promClient != nil {
		comps.Closers = append(comps.Closers, app.MapCloser(promClient))
	}
	if sentryClient != nil {
		comps.Closers = append(comps.Closers, app.MapCloser(sentryClient))
	}
	return comps
}
