// pkg/logger/context.go
package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取日志字段
// 典型用途是把 trace_id、connection_id 之类的链路字段带进每条日志
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 默认提取器，不提取任何字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

// DebugContext 记录 debug 级别日志，附带 context 提取的字段
func (l *ZapLogger) DebugContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, l.contextFields(ctx, keysAndValues)...)
}

// InfoContext 记录 info 级别日志，附带 context 提取的字段
func (l *ZapLogger) InfoContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, l.contextFields(ctx, keysAndValues)...)
}

// WarnContext 记录 warn 级别日志，附带 context 提取的字段
func (l *ZapLogger) WarnContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, l.contextFields(ctx, keysAndValues)...)
}

// ErrorContext 记录 error 级别日志，附带 context 提取的字段
func (l *ZapLogger) ErrorContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, l.contextFields(ctx, keysAndValues)...)
}

// PanicContext 记录 panic 级别日志，附带 context 提取的字段
func (l *ZapLogger) PanicContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Panic(msg, l.contextFields(ctx, keysAndValues)...)
}

// FatalContext 记录 fatal 级别日志，附带 context 提取的字段
func (l *ZapLogger) FatalContext(ctx context.Context, msg string, keysAndValues ...interface{}) {
	l.Logger.Fatal(msg, l.contextFields(ctx, keysAndValues)...)
}

func (l *ZapLogger) contextFields(ctx context.Context, keysAndValues []interface{}) []zap.Field {
	return append(l.extractor(ctx), normalizeFields(keysAndValues)...)
}
