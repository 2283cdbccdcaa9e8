// pkg/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/xchat/pkg/config"
)

// Logger 日志接口
// 其他 pkg 模块依赖此接口，避免耦合具体实现
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	DebugContext(ctx context.Context, msg string, keysAndValues ...interface{})
	InfoContext(ctx context.Context, msg string, keysAndValues ...interface{})
	WarnContext(ctx context.Context, msg string, keysAndValues ...interface{})
	ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{})

	Named(name string) Logger
	WithFields(keysAndValues ...interface{}) Logger

	Sync() error
}

var _ Logger = (*ZapLogger)(nil)

// ZapLogger 基于 zap 的 Logger 实现
type ZapLogger struct {
	*zap.Logger
	cfg       *Config
	name      string
	fields    map[string]interface{}
	hooks     []Hook
	extractor ContextFieldExtractor
}

// New 根据配置创建 ZapLogger
// cfg 为 nil 或部分填写时，缺省值来自 DefaultConfig
func New(cfg *Config, opts ...Option) (*ZapLogger, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("merge logger config: %w", err)
	}

	l := &ZapLogger{
		cfg:       merged,
		fields:    make(map[string]interface{}),
		extractor: merged.ContextExtractor,
	}
	for k, v := range merged.GlobalFields {
		l.fields[k] = v
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.extractor == nil {
		l.extractor = DefaultContextExtractor
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	zl, err := l.build()
	if err != nil {
		return nil, err
	}
	l.Logger = zl

	return l, nil
}

func (l *ZapLogger) build() (*zap.Logger, error) {
	enc := l.newEncoder()

	syncers := make([]zapcore.WriteSyncer, 0, 2)
	if l.cfg.EnableConsole {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if l.cfg.EnableFile {
		w, err := newRotationWriter(&l.cfg.Rotation, l.cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("create rotation writer: %w", err)
		}
		syncers = append(syncers, zapcore.AddSync(w))
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(syncers...), zapLevel(l.cfg.Level))
	if len(l.hooks) > 0 {
		core = newHookCore(core, l.hooks...)
	}
	if l.cfg.EnableSampling {
		core = zapcore.NewSamplerWithOptions(core, 1, l.cfg.SamplingInitial, l.cfg.SamplingThereafter)
	}

	zapOpts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	}
	if l.cfg.EnableStacktrace {
		zapOpts = append(zapOpts, zap.AddStacktrace(zapLevel(l.cfg.StacktraceLevel)))
	}
	if l.cfg.Development {
		zapOpts = append(zapOpts, zap.Development())
	}

	zl := zap.New(core, zapOpts...)
	if len(l.fields) > 0 {
		zfs := make([]zap.Field, 0, len(l.fields))
		for k, v := range l.fields {
			zfs = append(zfs, zap.Any(k, v))
		}
		zl = zl.With(zfs...)
	}
	if l.name != "" {
		zl = zl.Named(l.name)
	}
	return zl, nil
}

func (l *ZapLogger) newEncoder() zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if l.cfg.TimeFormat != "" {
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(l.cfg.TimeFormat)
	} else {
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if l.cfg.Development {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if l.cfg.Format == ConsoleFormat {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// zapLevel 把字符串等级转成 zapcore.Level，无法识别时退回 info
func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Debug 记录 debug 级别日志
func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, normalizeFields(keysAndValues)...)
}

// Info 记录 info 级别日志
func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, normalizeFields(keysAndValues)...)
}

// Warn 记录 warn 级别日志
func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, normalizeFields(keysAndValues)...)
}

// Error 记录 error 级别日志
func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, normalizeFields(keysAndValues)...)
}

// Panic 记录 panic 级别日志
func (l *ZapLogger) Panic(msg string, keysAndValues ...interface{}) {
	l.Logger.Panic(msg, normalizeFields(keysAndValues)...)
}

// Fatal 记录 fatal 级别日志
func (l *ZapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.Logger.Fatal(msg, normalizeFields(keysAndValues)...)
}

// Named 派生具名 logger
func (l *ZapLogger) Named(name string) Logger {
	return &ZapLogger{
		Logger:    l.Logger.Named(name),
		cfg:       l.cfg,
		name:      name,
		fields:    l.fields,
		hooks:     l.hooks,
		extractor: l.extractor,
	}
}

// WithFields 派生带固定字段的 logger
func (l *ZapLogger) WithFields(keysAndValues ...interface{}) Logger {
	zfs := normalizeFields(keysAndValues)
	if len(zfs) == 0 {
		return l
	}
	return &ZapLogger{
		Logger:    l.Logger.With(zfs...),
		cfg:       l.cfg,
		name:      l.name,
		fields:    l.fields,
		hooks:     l.hooks,
		extractor: l.extractor,
	}
}

// Sync 刷新缓冲的日志
func (l *ZapLogger) Sync() error {
	return l.Logger.Sync()
}

// normalizeFields 把混合的 zap.Field / key-value 对统一转成 zap.Field
// 奇数个剩余参数或非 string key 会被丢弃，不影响其余字段
func normalizeFields(keysAndValues []interface{}) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues); {
		if f, ok := keysAndValues[i].(zap.Field); ok {
			fields = append(fields, f)
			i++
			continue
		}
		key, ok := keysAndValues[i].(string)
		if !ok || i+1 >= len(keysAndValues) {
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		i += 2
	}
	return fields
}
