package sentry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config 上报配置
type Config struct {
	// 基础信息
	DSN         string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`
	Release     string `json:"release" yaml:"release" mapstructure:"release"`
	ServerName  string `json:"server_name" yaml:"server_name" mapstructure:"server_name"`

	// 采样与上下文
	SampleRate       float64 `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
	AttachStacktrace bool    `json:"attach_stacktrace" yaml:"attach_stacktrace" mapstructure:"attach_stacktrace"`
	MaxBreadcrumbs   int     `json:"max_breadcrumbs" yaml:"max_breadcrumbs" mapstructure:"max_breadcrumbs"`

	// 行为控制
	ShutdownTimeout time.Duration     `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Debug           bool              `json:"debug" yaml:"debug" mapstructure:"debug"`
	Tags            map[string]string `json:"tags" yaml:"tags" mapstructure:"tags"`

	// BeforeSend 在事件发出前调用，可修改或丢弃事件（返回 nil 即丢弃），
	// 仅支持代码内设置
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultConfig 返回生产环境缺省配置，DSN 需调用方填写
func DefaultConfig() *Config {
	return &Config{
		Environment:      "production",
		SampleRate:       1.0,
		AttachStacktrace: true,
		MaxBreadcrumbs:   100,
		ShutdownTimeout:  2 * time.Second,
		Tags:             make(map[string]string),
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.DSN == "" {
		return ErrInvalidDSN
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("%w: sample_rate %v out of range [0,1]", ErrInvalidConfig, c.SampleRate)
	}
	if c.MaxBreadcrumbs < 0 {
		return fmt.Errorf("%w: max_breadcrumbs must not be negative", ErrInvalidConfig)
	}
	return nil
}

// clientOptions 转换为 SDK 的 ClientOptions
func (c *Config) clientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		ServerName:       c.ServerName,
		SampleRate:       c.SampleRate,
		AttachStacktrace: c.AttachStacktrace,
		MaxBreadcrumbs:   c.MaxBreadcrumbs,
		Debug:            c.Debug,
		BeforeSend:       c.BeforeSend,
	}
}
