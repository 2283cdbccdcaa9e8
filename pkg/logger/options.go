// pkg/logger/options.go
package logger

// Option 创建 logger 时的可选项
type Option func(*ZapLogger)

// WithName 设置 logger 名称
func WithName(name string) Option {
	return func(l *ZapLogger) {
		l.name = name
	}
}

// WithGlobalFields 追加全局字段，接受 key-value 对
func WithGlobalFields(keysAndValues ...interface{}) Option {
	return func(l *ZapLogger) {
		for i := 0; i+1 < len(keysAndValues); i += 2 {
			key, ok := keysAndValues[i].(string)
			if !ok {
				continue
			}
			l.fields[key] = keysAndValues[i+1]
		}
	}
}

// WithHooks 追加日志钩子
func WithHooks(hooks ...Hook) Option {
	return func(l *ZapLogger) {
		l.hooks = append(l.hooks, hooks...)
	}
}

// WithLevel 覆盖配置中的日志等级
func WithLevel(level Level) Option {
	return func(l *ZapLogger) {
		l.cfg.Level = level
	}
}

// WithDevelopment 开关开发模式
func WithDevelopment(dev bool) Option {
	return func(l *ZapLogger) {
		l.cfg.Development = dev
	}
}

// WithContextExtractor 设置 context 字段提取器
func WithContextExtractor(fn ContextFieldExtractor) Option {
	return func(l *ZapLogger) {
		l.extractor = fn
	}
}
