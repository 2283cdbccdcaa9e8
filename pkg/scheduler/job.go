package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// Job 带名称的可执行任务
type Job interface {
	Run() error
	Name() string
}

// JobInfo 任务快照
type JobInfo struct {
	// ID 调度器分配的任务标识
	ID int `json:"id"`
	// Name 任务名
	Name string `json:"name"`
	// Spec cron 表达式
	Spec string `json:"spec"`
	// NextRun 下一次触发时间
	NextRun time.Time `json:"next_run"`
	// RunCount 已执行次数
	RunCount int64 `json:"run_count"`
	// FailCount 重试后仍然失败的次数
	FailCount int64 `json:"fail_count"`
}

// JobOption 任务级选项函数
type JobOption func(*JobOptions)

// WithMaxRetries 设置最大重试次数
func WithMaxRetries(n int) JobOption {
	return func(o *JobOptions) { o.MaxRetries = n }
}

// WithNoRetry 禁用重试
func WithNoRetry() JobOption {
	return func(o *JobOptions) { o.MaxRetries = 0 }
}

// WithBackoffStrategy 设置退避策略
func WithBackoffStrategy(s BackoffStrategy) JobOption {
	return func(o *JobOptions) { o.BackoffStrategy = s }
}

// WithInitialBackoff 设置首次重试等待时间
func WithInitialBackoff(d time.Duration) JobOption {
	return func(o *JobOptions) { o.InitialBackoff = d }
}

// WithMaxBackoff 设置退避上限
func WithMaxBackoff(d time.Duration) JobOption {
	return func(o *JobOptions) { o.MaxBackoff = d }
}

// WithBackoffMultiplier 设置指数退避倍率
func WithBackoffMultiplier(m float64) JobOption {
	return func(o *JobOptions) { o.BackoffMultiplier = m }
}

// funcJob 将函数适配为 Job
type funcJob struct {
	name string
	fn   func() error
}

func (j *funcJob) Run() error { return j.fn() }

func (j *funcJob) Name() string { return j.name }

// managedJob 包装用户任务，提供重试、恢复和统计
type managedJob struct {
	id   cron.EntryID
	name string
	spec string
	job  Job
	opts JobOptions

	logging  bool
	recovery bool
	logger   logger.Logger
	observer JobObserver

	runCount  atomic.Int64
	failCount atomic.Int64
}

// JobObserver 任务执行观察者，用于指标上报
type JobObserver interface {
	OnJobRun(name string, duration time.Duration, err error)
}

// Run 实现 cron.Job
func (j *managedJob) Run() {
	start := time.Now()
	j.runCount.Add(1)

	err := j.runWithRetry()
	duration := time.Since(start)

	if err != nil {
		j.failCount.Add(1)
		if j.logging && j.logger != nil {
			j.logger.Error("job failed",
				"job", j.name,
				"duration", duration,
				"error", err)
		}
	} else if j.logging && j.logger != nil {
		j.logger.Debug("job completed",
			"job", j.name,
			"duration", duration)
	}

	if j.observer != nil {
		j.observer.OnJobRun(j.name, duration, err)
	}
}

// runWithRetry 按退避策略重试任务
func (j *managedJob) runWithRetry() error {
	backoff := j.opts.InitialBackoff

	var err error
	for attempt := 0; ; attempt++ {
		err = j.safeRun()
		if err == nil {
			return nil
		}
		if attempt >= j.opts.MaxRetries {
			return err
		}

		if j.logging && j.logger != nil {
			j.logger.Warn("job attempt failed, retrying",
				"job", j.name,
				"attempt", attempt+1,
				"backoff", backoff,
				"error", err)
		}
		time.Sleep(backoff)

		if j.opts.BackoffStrategy == BackoffExponential {
			backoff = time.Duration(float64(backoff) * j.opts.BackoffMultiplier)
			if backoff > j.opts.MaxBackoff {
				backoff = j.opts.MaxBackoff
			}
		}
	}
}

// safeRun 执行任务，按配置捕获 panic
func (j *managedJob) safeRun() (err error) {
	if j.recovery {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf("job %s panicked: %v", j.name, r)
			}
		}()
	}
	return j.job.Run()
}

func (j *managedJob) snapshot(next time.Time) JobInfo {
	return JobInfo{
		ID:        int(j.id),
		Name:      j.name,
		Spec:      j.spec,
		NextRun:   next,
		RunCount:  j.runCount.Load(),
		FailCount: j.failCount.Load(),
	}
}
