// pkg/logger/hook.go
package logger

import (
	"go.uber.org/zap/zapcore"
)

// Hook 日志写入钩子
type Hook interface {
	// OnWrite 在日志写入前调用，返回 false 时丢弃该条日志
	// fields 可以就地修改，用于脱敏等场景
	OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool
}

// HookFunc 函数式 Hook
type HookFunc func(entry zapcore.Entry, fields []zapcore.Field) bool

func (f HookFunc) OnWrite(entry zapcore.Entry, fields []zapcore.Field) bool {
	return f(entry, fields)
}

// hookCore 在写入路径上执行钩子链的 zapcore.Core
type hookCore struct {
	zapcore.Core
	hooks []Hook
}

func newHookCore(core zapcore.Core, hooks ...Hook) zapcore.Core {
	return &hookCore{Core: core, hooks: hooks}
}

func (c *hookCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *hookCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	for _, h := range c.hooks {
		if !h.OnWrite(entry, fields) {
			return nil
		}
	}
	return c.Core.Write(entry, fields)
}

func (c *hookCore) With(fields []zapcore.Field) zapcore.Core {
	return &hookCore{Core: c.Core.With(fields), hooks: c.hooks}
}

// SensitiveDataHook 把命中的字段值替换为 ***REDACTED***
// 用于 token、ticket 之类不应落盘的字段
func SensitiveDataHook(sensitiveKeys []string) Hook {
	redact := make(map[string]struct{}, len(sensitiveKeys))
	for _, k := range sensitiveKeys {
		redact[k] = struct{}{}
	}

	return HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		for i := range fields {
			if _, ok := redact[fields[i].Key]; ok {
				fields[i].String = "***REDACTED***"
				fields[i].Interface = nil
				fields[i].Type = zapcore.StringType
			}
		}
		return true
	})
}
