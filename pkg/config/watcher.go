// pkg/config/watcher.go
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher 泛型配置监听器，文件变更时重新解析并通知回调
type Watcher[T any] struct {
	v          *viper.Viper
	configPath string
	configType string

	mu        sync.RWMutex
	config    *T
	callbacks []func(*T)
	stopped   bool
}

// NewWatcher 加载配置文件并开始监听
// configType 为 "yaml" 或 "json"；yaml 配置额外支持 XCHAT_ 环境变量覆盖
func NewWatcher[T any](configPath string, configType string) (*Watcher[T], error) {
	v, err := loadViper(configPath, configType)
	if err != nil {
		return nil, err
	}

	cfg := new(T)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	w := &Watcher[T]{
		v:          v,
		configPath: configPath,
		configType: configType,
		config:     cfg,
	}
	w.start()

	return w, nil
}

// GetConfig 返回当前配置快照
func (w *Watcher[T]) GetConfig() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange 注册配置变更回调
func (w *Watcher[T]) OnChange(callback func(*T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Stop 停止派发变更通知
// viper 不支持注销 fsnotify 监听，这里只关闭通知
func (w *Watcher[T]) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

func (w *Watcher[T]) start() {
	w.v.OnConfigChange(func(e fsnotify.Event) {
		// 每次重载用全新实例，避免已删除的 key 残留
		fresh, err := loadViper(w.configPath, w.configType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config reload failed: %v\n", err)
			return
		}

		cfg := new(T)
		if err := fresh.Unmarshal(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config reload unmarshal failed: %v\n", err)
			return
		}

		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.config = cfg
		callbacks := make([]func(*T), len(w.callbacks))
		copy(callbacks, w.callbacks)
		w.mu.Unlock()

		for _, cb := range callbacks {
			cb(cfg)
		}
	})
	w.v.WatchConfig()
}

// loadViper 读取单个配置文件
func loadViper(configPath, configType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType(configType)

	if configType == "yaml" {
		v.SetEnvPrefix("XCHAT")
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return v, nil
}
