package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/xchat/pkg/config"
	"github.com/lk2023060901/xchat/pkg/logger"
)

// Scheduler 基于 cron 的任务调度器
type Scheduler struct {
	cfg    *Config
	cron   *cron.Cron
	logger logger.Logger

	mu     sync.RWMutex
	jobs   map[cron.EntryID]*managedJob
	byName map[string]cron.EntryID

	observer JobObserver

	running atomic.Bool
	closed  atomic.Bool
}

// Option 调度器选项
type Option func(*Scheduler)

// WithLogger 设置日志器
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithObserver 设置任务执行观察者
func WithObserver(o JobObserver) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New 创建调度器
func New(cfg *Config, opts ...Option) (*Scheduler, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "merge scheduler config")
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:    merged,
		jobs:   make(map[cron.EntryID]*managedJob),
		byName: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}

	loc, err := time.LoadLocation(merged.Timezone)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "timezone %q", merged.Timezone)
	}

	cronLog := &cronLogger{log: s.logger.Named("cron")}
	cronOpts := []cron.Option{cron.WithLocation(loc)}
	if merged.WithSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	if merged.SkipIfStillRunning {
		cronOpts = append(cronOpts, cron.WithChain(cron.SkipIfStillRunning(cronLog)))
	}
	s.cron = cron.New(cronOpts...)

	return s, nil
}

// AddFunc 注册函数型任务
func (s *Scheduler) AddFunc(name, spec string, fn func() error, opts ...JobOption) (int, error) {
	return s.AddJob(name, spec, &funcJob{name: name, fn: fn}, opts...)
}

// AddJob 注册任务
func (s *Scheduler) AddJob(name, spec string, job Job, opts ...JobOption) (int, error) {
	if s.closed.Load() {
		return 0, ErrSchedulerClosed
	}

	jobOpts := s.cfg.DefaultJobOptions
	for _, opt := range opts {
		opt(&jobOpts)
	}
	if err := jobOpts.validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return 0, errors.Wrapf(ErrJobExists, "%s", name)
	}

	managed := &managedJob{
		name:     name,
		spec:     spec,
		job:      job,
		opts:     jobOpts,
		logging:  s.cfg.Middleware.Logging,
		recovery: s.cfg.Middleware.Recovery,
		logger:   s.logger,
	}
	if s.cfg.Middleware.Metrics {
		managed.observer = s.observer
	}

	id, err := s.cron.AddJob(spec, managed)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidSpec, "%s: %v", spec, err)
	}

	managed.id = id
	s.jobs[id] = managed
	s.byName[name] = id

	return int(id), nil
}

// RemoveJob 移除任务
func (s *Scheduler) RemoveJob(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID := cron.EntryID(id)
	job, ok := s.jobs[entryID]
	if !ok {
		return ErrJobNotFound
	}

	s.cron.Remove(entryID)
	delete(s.jobs, entryID)
	delete(s.byName, job.name)
	return nil
}

// Start 启动调度器，重复调用无效果
func (s *Scheduler) Start() {
	if s.closed.Load() {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.jobCount(), "timezone", s.cfg.Timezone)
}

// Stop 停止调度器，返回的 Context 在所有运行中的任务结束后完成
func (s *Scheduler) Stop() context.Context {
	s.running.Store(false)
	return s.cron.Stop()
}

// Release 停止调度器并等待所有任务退出
func (s *Scheduler) Release() {
	if s.closed.Swap(true) {
		return
	}
	<-s.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// ListJobs 列出所有任务的快照
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for id, job := range s.jobs {
		infos = append(infos, job.snapshot(s.cron.Entry(id).Next))
	}
	return infos
}

// JobInfo 按任务名查询快照
func (s *Scheduler) JobInfo(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return JobInfo{}, ErrJobNotFound
	}
	return s.jobs[id].snapshot(s.cron.Entry(id).Next), nil
}

// IsRunning 调度器是否在运行
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) jobCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// cronLogger 将 cron 的日志接入框架日志器
type cronLogger struct {
	log logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	kv := append([]interface{}{"error", err}, keysAndValues...)
	l.log.Error(msg, kv...)
}
