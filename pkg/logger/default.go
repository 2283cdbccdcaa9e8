// pkg/logger/default.go
package logger

import (
	"context"
	"os"
	"sync"

	"github.com/lk2023060901/xchat/pkg/config"
)

var (
	defaultLogger     *ZapLogger
	defaultLoggerOnce sync.Once
	defaultLoggerMu   sync.RWMutex
)

// InitDefault 初始化默认 logger
func InitDefault(cfg *Config, opts ...Option) error {
	l, err := New(cfg, opts...)
	if err != nil {
		return err
	}

	SetDefault(l)
	return nil
}

// InitDefaultFromEnv 从环境变量初始化默认 logger
// 环境变量前缀: XCHAT_LOG_
func InitDefaultFromEnv() error {
	overrides := &Config{}

	if level := os.Getenv("XCHAT_LOG_LEVEL"); level != "" {
		overrides.Level = Level(level)
	}
	if format := os.Getenv("XCHAT_LOG_FORMAT"); format != "" {
		overrides.Format = Format(format)
	}
	if path := os.Getenv("XCHAT_LOG_PATH"); path != "" {
		overrides.EnableFile = true
		overrides.OutputPath = path
	}
	if os.Getenv("XCHAT_LOG_CONSOLE") == "false" {
		overrides.EnableConsole = false
	}
	if os.Getenv("XCHAT_LOG_DEVELOPMENT") == "true" {
		overrides.Development = true
	}

	merged, err := config.MergeConfig(DefaultConfig(), overrides)
	if err != nil {
		return err
	}

	return InitDefault(merged)
}

// SetDefault 替换默认 logger
func SetDefault(l *ZapLogger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = l
}

// Default 获取默认 logger，首次调用时按默认配置懒加载
func Default() *ZapLogger {
	defaultLoggerOnce.Do(func() {
		if defaultLogger == nil {
			l, err := New(DefaultConfig())
			if err != nil {
				panic(err)
			}
			defaultLogger = l
		}
	})

	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetGlobalFields 给默认 logger 附加全局字段
func SetGlobalFields(keysAndValues ...interface{}) {
	l := Default()
	if derived, ok := l.WithFields(keysAndValues...).(*ZapLogger); ok {
		SetDefault(derived)
	}
}

// --- 默认 logger 的便捷函数 ---

func Debug(msg string, keysAndValues ...interface{}) {
	Default().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	Default().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	Default().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	Default().Error(msg, keysAndValues...)
}

func Panic(msg string, keysAndValues ...interface{}) {
	Default().Panic(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...interface{}) {
	Default().Fatal(msg, keysAndValues...)
}

func Named(name string) Logger {
	return Default().Named(name)
}

func WithFields(keysAndValues ...interface{}) Logger {
	return Default().WithFields(keysAndValues...)
}

func Sync() error {
	return Default().Sync()
}

// --- Context 版本 ---

func DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().DebugContext(ctx, msg, keysAndValues...)
}

func InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().InfoContext(ctx, msg, keysAndValues...)
}

func WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().WarnContext(ctx, msg, keysAndValues...)
}

func ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().ErrorContext(ctx, msg, keysAndValues...)
}

func PanicContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().PanicContext(ctx, msg, keysAndValues...)
}

func FatalContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Default().FatalContext(ctx, msg, keysAndValues...)
}
