package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Option 创建 Manager 时的可选项
type Option func(*viperManager)

// WithDefaults 预设默认值，配置文件与环境变量均可覆盖
func WithDefaults(defaults map[string]any) Option {
	return func(m *viperManager) {
		for key, value := range defaults {
			m.v.SetDefault(key, value)
		}
	}
}

// WithConfigType 指定配置格式 (yaml/json/toml)，用于无扩展名或流式输入
func WithConfigType(configType string) Option {
	return func(m *viperManager) {
		m.v.SetConfigType(configType)
	}
}

// WithConfigName 指定配置文件名（不含扩展名），配合 WithConfigPaths 搜索
func WithConfigName(name string) Option {
	return func(m *viperManager) {
		m.v.SetConfigName(name)
	}
}

// WithConfigPaths 追加配置搜索路径，按传入顺序查找
func WithConfigPaths(paths ...string) Option {
	return func(m *viperManager) {
		for _, path := range paths {
			m.v.AddConfigPath(path)
		}
	}
}

// WithEnvPrefix 启用环境变量覆盖，嵌套 key 的点号映射为下划线
func WithEnvPrefix(prefix string) Option {
	return func(m *viperManager) {
		if prefix == "" {
			return
		}
		m.v.SetEnvPrefix(prefix)
		m.v.AutomaticEnv()
		m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}
}

// WithViper 复用外部构建好的 viper 实例（如 pkg/app 的启动流程）
func WithViper(v *viper.Viper) Option {
	return func(m *viperManager) {
		m.v = v
	}
}
