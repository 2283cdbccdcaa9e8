//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/xchat/app/probe/internal/runner"
	"github.com/lk2023060901/xchat/pkg/app"
	"github.com/lk2023060901/xchat/pkg/logger"
)

// InitProbeApp 装配探针应用
func InitProbeApp(cfg *Config, l logger.Logger) (app.Application, error) {
	panic(wire.Build(
		// 框架层
		app.ProviderSet,

		// 配置切片
		provideClientConfig,
		provideProbeConfig,

		// 可观测组件
		provideMetricsClient,
		provideSentryClient,

		// 探针
		provideRunnerOptions,
		runner.New,

		// 组装
		provideAppOptions,
		provideAppComponents,
		app.InitApp,
	))
}
