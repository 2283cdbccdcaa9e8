package scheduler

import "errors"

var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("scheduler: invalid config")

	// ErrInvalidSpec 无效的 cron 表达式
	ErrInvalidSpec = errors.New("scheduler: invalid cron spec")

	// ErrJobExists 任务名已存在
	ErrJobExists = errors.New("scheduler: job already exists")

	// ErrJobNotFound 任务不存在
	ErrJobNotFound = errors.New("scheduler: job not found")

	// ErrSchedulerClosed 调度器已关闭
	ErrSchedulerClosed = errors.New("scheduler: scheduler closed")
)
