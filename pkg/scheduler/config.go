package scheduler

import (
	"time"
)

// BackoffStrategy 重试退避策略
type BackoffStrategy string

const (
	// BackoffFixed 固定间隔退避
	BackoffFixed BackoffStrategy = "fixed"
	// BackoffExponential 指数退避
	BackoffExponential BackoffStrategy = "exponential"
)

// JobOptions 任务级选项
type JobOptions struct {
	// MaxRetries 失败后的最大重试次数，0 表示不重试
	MaxRetries int `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`
	// BackoffStrategy 退避策略
	BackoffStrategy BackoffStrategy `mapstructure:"backoff_strategy" json:"backoff_strategy" yaml:"backoff_strategy"`
	// InitialBackoff 首次重试前的等待时间
	InitialBackoff time.Duration `mapstructure:"initial_backoff" json:"initial_backoff" yaml:"initial_backoff"`
	// MaxBackoff 退避上限
	MaxBackoff time.Duration `mapstructure:"max_backoff" json:"max_backoff" yaml:"max_backoff"`
	// BackoffMultiplier 指数退避倍率
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier" json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// MiddlewareConfig 任务执行中间件开关
type MiddlewareConfig struct {
	// Logging 记录任务执行日志
	Logging bool `mapstructure:"logging" json:"logging" yaml:"logging"`
	// Recovery 捕获任务 panic
	Recovery bool `mapstructure:"recovery" json:"recovery" yaml:"recovery"`
	// Metrics 上报任务执行指标
	Metrics bool `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

// Config 调度器配置
type Config struct {
	// Timezone 时区名称，如 Asia/Shanghai
	Timezone string `mapstructure:"timezone" json:"timezone" yaml:"timezone"`
	// WithSeconds 是否启用秒级精度（6 字段 cron 表达式）
	WithSeconds bool `mapstructure:"with_seconds" json:"with_seconds" yaml:"with_seconds"`
	// SkipIfStillRunning 上一次执行未结束时跳过本次触发
	SkipIfStillRunning bool `mapstructure:"skip_if_still_running" json:"skip_if_still_running" yaml:"skip_if_still_running"`
	// Middleware 中间件开关
	Middleware MiddlewareConfig `mapstructure:"middleware" json:"middleware" yaml:"middleware"`
	// DefaultJobOptions 任务默认选项
	DefaultJobOptions JobOptions `mapstructure:"default_job_options" json:"default_job_options" yaml:"default_job_options"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Timezone:           "Local",
		WithSeconds:        false,
		SkipIfStillRunning: true,
		Middleware: MiddlewareConfig{
			Logging:  true,
			Recovery: true,
			Metrics:  false,
		},
		DefaultJobOptions: JobOptions{
			MaxRetries:        0,
			BackoffStrategy:   BackoffExponential,
			InitialBackoff:    100 * time.Millisecond,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// Validate 验证配置并填充默认值
func (c *Config) Validate() error {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return ErrInvalidConfig
	}
	if err := c.DefaultJobOptions.validate(); err != nil {
		return err
	}
	return nil
}

func (o *JobOptions) validate() error {
	if o.MaxRetries < 0 {
		return ErrInvalidConfig
	}
	if o.BackoffStrategy == "" {
		o.BackoffStrategy = BackoffExponential
	}
	if o.BackoffStrategy != BackoffFixed && o.BackoffStrategy != BackoffExponential {
		return ErrInvalidConfig
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 100 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 10 * time.Second
	}
	if o.BackoffMultiplier < 1 {
		o.BackoffMultiplier = 2.0
	}
	return nil
}
