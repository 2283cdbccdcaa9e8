package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager 配置管理器接口
type Manager interface {
	// Load 按 WithConfigName/WithConfigPaths 设定的名称和搜索路径查找并加载配置
	Load() error
	// LoadFile 加载指定配置文件，格式由扩展名或 WithConfigType 决定
	LoadFile(path string) error
	// BindEnv 绑定环境变量，prefix 如 "XCHAT" 匹配 XCHAT_GATEWAY_ENDPOINT
	BindEnv(prefix string)
	// Unmarshal 解析整个配置到结构体
	Unmarshal(v any) error
	// UnmarshalKey 解析指定路径的配置，key 支持点分嵌套如 "reconnect.max_attempts"
	UnmarshalKey(key string, v any) error
	// Get 获取原始配置值
	Get(key string) any
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	// Watch 注册配置文件变更回调，可多次调用注册多个回调
	Watch(callback func()) error
	// IsSet 检查配置项是否存在
	IsSet(key string) bool
	// AllSettings 以 map 形式返回全部配置
	AllSettings() map[string]any
}

type viperManager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	watchOnce sync.Once
	callbacks []func()
}

// NewManager 创建配置管理器
func NewManager(opts ...Option) Manager {
	m := &viperManager{v: viper.New()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *viperManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (m *viperManager) LoadFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.SetConfigFile(path)
	if err := m.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

func (m *viperManager) BindEnv(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prefix != "" {
		m.v.SetEnvPrefix(prefix)
	}
	m.v.AutomaticEnv()
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func (m *viperManager) Unmarshal(v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.Unmarshal(v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (m *viperManager) UnmarshalKey(key string, v any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.v.UnmarshalKey(key, v); err != nil {
		return fmt.Errorf("unmarshal key %s: %w", key, err)
	}
	return nil
}

func (m *viperManager) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.Get(key)
}

func (m *viperManager) GetString(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetString(key)
}

func (m *viperManager) GetInt(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetInt(key)
}

func (m *viperManager) GetBool(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.GetBool(key)
}

// Watch 注册变更回调
// fsnotify 监听只启动一次，后续调用仅追加回调
func (m *viperManager) Watch(callback func()) error {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, callback)
	m.mu.Unlock()

	m.watchOnce.Do(func() {
		m.v.OnConfigChange(func(e fsnotify.Event) {
			m.mu.RLock()
			callbacks := make([]func(), len(m.callbacks))
			copy(callbacks, m.callbacks)
			m.mu.RUnlock()

			for _, cb := range callbacks {
				cb()
			}
		})
		m.v.WatchConfig()
	})

	return nil
}

func (m *viperManager) IsSet(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.IsSet(key)
}

func (m *viperManager) AllSettings() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.AllSettings()
}
