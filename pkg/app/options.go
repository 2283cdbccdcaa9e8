package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/xchat/pkg/logger"
)

// Options 应用选项
type Options struct {
	// ID 实例标识，缺省为随机 UUID
	ID          string
	Name        string
	StopTimeout time.Duration

	// Logger 应用主日志对象，未设置时使用进程级缺省 Logger
	Logger logger.Logger

	// LogConfig 非 nil 时在构建阶段据此新建主日志对象
	LogConfig *logger.Config

	// NamedLoggers 具名日志配置，Run 时初始化并注册
	NamedLoggers map[string]*logger.Config
}

// Option 选项函数
type Option func(*Options)

// DefaultOptions 缺省选项
func DefaultOptions() Options {
	return Options{
		ID:          uuid.New().String(),
		Name:        AppName,
		StopTimeout: 30 * time.Second,
		Logger:      logger.Default(),
	}
}

// WithID 设置实例 ID
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

// WithName 设置应用名称
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithStopTimeout 设置优雅停止超时
func WithStopTimeout(t time.Duration) Option {
	return func(o *Options) { o.StopTimeout = t }
}

// WithLogger 设置应用主日志对象
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithLogConfig 设置主日志配置
func WithLogConfig(cfg *logger.Config) Option {
	return func(o *Options) { o.LogConfig = cfg }
}

// WithNamedLoggers 设置具名日志配置
func WithNamedLoggers(loggers map[string]*logger.Config) Option {
	return func(o *Options) { o.NamedLoggers = loggers }
}
