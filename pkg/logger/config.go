// pkg/logger/config.go
package logger

// Level 日志等级
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	PanicLevel Level = "panic"
	FatalLevel Level = "fatal"
)

// Format 输出格式
type Format string

const (
	JSONFormat    Format = "json"
	ConsoleFormat Format = "console"
)

// RotationType 日志文件轮换方式
type RotationType string

const (
	RotationBySize RotationType = "size"
	RotationByTime RotationType = "time"
)

// Config 日志配置
type Config struct {
	Level  Level  `mapstructure:"level"`
	Format Format `mapstructure:"format"`

	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`
	OutputPath    string `mapstructure:"output_path"`

	// 时间戳格式，空值时使用 ISO8601
	TimeFormat string `mapstructure:"time_format"`

	Rotation RotationConfig `mapstructure:"rotation"`

	EnableStacktrace bool  `mapstructure:"enable_stacktrace"`
	StacktraceLevel  Level `mapstructure:"stacktrace_level"`

	// 高频日志采样：每秒前 SamplingInitial 条全记，之后每 SamplingThereafter 条记 1 条
	EnableSampling     bool `mapstructure:"enable_sampling"`
	SamplingInitial    int  `mapstructure:"sampling_initial"`
	SamplingThereafter int  `mapstructure:"sampling_thereafter"`

	// 开发模式：彩色等级、zap development 行为
	Development bool `mapstructure:"development"`

	// 附加到每条日志的全局字段
	GlobalFields map[string]interface{} `mapstructure:"global_fields"`

	// 从 context 提取日志字段，仅代码内设置
	ContextExtractor ContextFieldExtractor `mapstructure:"-"`
}

// RotationConfig 轮换配置
type RotationConfig struct {
	Type RotationType `mapstructure:"type"`

	// size 模式 (lumberjack)
	MaxSize    int  `mapstructure:"max_size"`    // 单文件上限 (MB)
	MaxBackups int  `mapstructure:"max_backups"` // 旧文件保留数量
	MaxAge     int  `mapstructure:"max_age"`     // 保留天数
	Compress   bool `mapstructure:"compress"`

	// time 模式 (file-rotatelogs)
	RotationTime    string `mapstructure:"rotation_time"`    // 轮换间隔，如 1h、24h
	MaxAgeTime      string `mapstructure:"max_age_time"`     // 保留时长，如 168h
	RotationPattern string `mapstructure:"rotation_pattern"` // 文件名后缀，如 .%Y%m%d
}

// DefaultConfig 返回默认配置：info 级别，仅控制台输出
func DefaultConfig() *Config {
	return &Config{
		Level:         InfoLevel,
		Format:        ConsoleFormat,
		EnableConsole: true,
		EnableFile:    false,
		TimeFormat:    "2006-01-02 15:04:05",
		Rotation: RotationConfig{
			Type:            RotationBySize,
			MaxSize:         100,
			MaxBackups:      5,
			MaxAge:          7,
			Compress:        true,
			RotationTime:    "24h",
			MaxAgeTime:      "168h",
			RotationPattern: ".%Y%m%d",
		},
		EnableStacktrace:   true,
		StacktraceLevel:    ErrorLevel,
		EnableSampling:     false,
		SamplingInitial:    100,
		SamplingThereafter: 100,
		GlobalFields:       make(map[string]interface{}),
	}
}

// Validate 校验配置组合是否可用
func (c *Config) Validate() error {
	if c.EnableFile && c.OutputPath == "" {
		return ErrInvalidOutputPath
	}
	if !c.EnableConsole && !c.EnableFile {
		return ErrNoOutputEnabled
	}
	return nil
}
