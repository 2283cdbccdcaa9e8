package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lk2023060901/xchat/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configPath string
	logPath    string
)

// LoadConfig 统一的启动配置加载入口。
// 优先级：命令行显式参数 > 环境变量 > 配置文件 > 默认值。
func LoadConfig(target any, opts ...config.Option) error {
	execDir, err := GetExecDir()
	if err != nil {
		return fmt.Errorf("failed to get executable directory: %w", err)
	}

	defaultLog := filepath.Join(execDir, "logs", "app.log")
	registerFlags(filepath.Join(execDir, "config.yaml"), defaultLog)

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	configPath = path

	v := newStartupViper(defaultLog)

	mgr := config.NewManager(append(opts, config.WithViper(v))...)
	if err := mgr.LoadFile(configPath); err != nil {
		return err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 最终生效的日志路径，目录不存在则补建
	logPath = v.GetString("log.output_path")
	logDir := filepath.Dir(logPath)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		_ = os.MkdirAll(logDir, 0755)
	}

	return nil
}

// registerFlags 注册启动参数，重复调用只生效一次
func registerFlags(defaultConfig, defaultLog string) {
	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if pflag.Lookup("log.path") == nil {
		pflag.StringVar(&logPath, "log.path", defaultLog, "output path for logs")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}
}

// resolveConfigPath 确定配置文件路径：
// --config 显式指定 > 环境变量 XCHAT_CONFIG > 可执行目录下的 config.yaml
func resolveConfigPath() (string, error) {
	path := configPath
	if !pflag.CommandLine.Changed("config") {
		if envConfig := os.Getenv("XCHAT_CONFIG"); envConfig != "" {
			path = envConfig
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("config file not found at %s", path)
	}
	return path, nil
}

// newStartupViper 构建带环境变量映射和日志默认值的 viper 实例
func newStartupViper(defaultLog string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("XCHAT")
	v.AutomaticEnv()
	// XCHAT_LOG_LEVEL -> log.level
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// 最低优先级的默认值，可被配置文件和环境变量覆盖
	v.SetDefault("log.output_path", defaultLog)
	v.SetDefault("log.enable_file", true)

	// 命令行显式指定 --log.path 时覆盖所有来源
	if pflag.CommandLine.Changed("log.path") {
		v.Set("log.output_path", logPath)
	}

	return v
}

// GetExecDir 可执行文件所在目录，符号链接取真实路径
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}

// GetLogPath 最终生效的日志输出路径
func GetLogPath() string {
	return logPath
}
