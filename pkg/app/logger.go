package app

import (
	"fmt"
	"sync"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// LoggerRegistry 具名日志对象的集中管理
type LoggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]logger.Logger
}

func NewLoggerRegistry() *LoggerRegistry {
	return &LoggerRegistry{
		loggers: make(map[string]logger.Logger),
	}
}

// Register 注册具名 Logger，同名覆盖
func (r *LoggerRegistry) Register(name string, l logger.Logger) {
	r.mu.Lock()
	r.loggers[name] = l
	r.mu.Unlock()
}

// Get 按名称取回 Logger，不存在时返回 nil
func (r *LoggerRegistry) Get(name string) logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loggers[name]
}

// Names 返回所有已注册的名称
func (r *LoggerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	return names
}

// SyncAll 刷写所有已注册 Logger 的缓冲
func (r *LoggerRegistry) SyncAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.loggers {
		_ = l.Sync()
	}
}

// InitLoggers 按配置批量构建并注册具名 Logger
// 任一配置构建失败即返回，已注册的部分保留
func (r *LoggerRegistry) InitLoggers(configs map[string]*logger.Config) error {
	for name, cfg := range configs {
		l, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("build named logger %q: %w", name, err)
		}
		r.Register(name, l.Named(name))
	}
	return nil
}
