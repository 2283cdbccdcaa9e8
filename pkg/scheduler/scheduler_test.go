package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(&Config{
		WithSeconds: true,
		Middleware: MiddlewareConfig{
			Logging:  false,
			Recovery: true,
		},
	})
	require.NoError(t, err)
	return s
}

func TestScheduler_AddAndList(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Release()

	id, err := s.AddFunc("tick", "*/5 * * * * *", func() error { return nil })
	require.NoError(t, err)
	assert.NotZero(t, id)

	// 重名注册被拒绝
	_, err = s.AddFunc("tick", "*/5 * * * * *", func() error { return nil })
	assert.ErrorIs(t, err, ErrJobExists)

	// 非法表达式
	_, err = s.AddFunc("bad", "not-a-spec", func() error { return nil })
	assert.ErrorIs(t, err, ErrInvalidSpec)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "tick", jobs[0].Name)
	assert.Equal(t, "*/5 * * * * *", jobs[0].Spec)

	info, err := s.JobInfo("tick")
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)

	_, err = s.JobInfo("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := newTestScheduler(t)
	defer s.Release()

	id, err := s.AddFunc("ephemeral", "*/5 * * * * *", func() error { return nil })
	require.NoError(t, err)

	require.NoError(t, s.RemoveJob(id))
	assert.Empty(t, s.ListJobs())
	assert.ErrorIs(t, s.RemoveJob(id), ErrJobNotFound)

	// 移除后名字可以复用
	_, err = s.AddFunc("ephemeral", "*/5 * * * * *", func() error { return nil })
	assert.NoError(t, err)
}

func TestManagedJob_Retry(t *testing.T) {
	var calls atomic.Int32
	job := &managedJob{
		name: "flaky",
		job: &funcJob{name: "flaky", fn: func() error {
			if calls.Add(1) < 3 {
				return errors.New("boom")
			}
			return nil
		}},
		opts: JobOptions{
			MaxRetries:        3,
			BackoffStrategy:   BackoffFixed,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        10 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	}

	job.Run()

	assert.EqualValues(t, 3, calls.Load(), "two failures then success")
	assert.EqualValues(t, 1, job.runCount.Load())
	assert.EqualValues(t, 0, job.failCount.Load())
}

func TestManagedJob_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	job := &managedJob{
		name: "hopeless",
		job: &funcJob{name: "hopeless", fn: func() error {
			calls.Add(1)
			return errors.New("always fails")
		}},
		opts: JobOptions{
			MaxRetries:        2,
			BackoffStrategy:   BackoffExponential,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        4 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
	}

	job.Run()

	// 初次执行 + 2 次重试
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 1, job.failCount.Load())
}

func TestManagedJob_Recovery(t *testing.T) {
	job := &managedJob{
		name:     "panicky",
		recovery: true,
		job: &funcJob{name: "panicky", fn: func() error {
			panic("kaboom")
		}},
		opts: JobOptions{
			MaxRetries:     0,
			InitialBackoff: time.Millisecond,
		},
	}

	assert.NotPanics(t, func() { job.Run() })
	assert.EqualValues(t, 1, job.failCount.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	s := newTestScheduler(t)

	var runs atomic.Int32
	_, err := s.AddFunc("every-second", "* * * * * *", func() error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	assert.True(t, s.IsRunning())
	// 重复启动无效果
	s.Start()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	s.Release()
	assert.False(t, s.IsRunning())

	// 关闭后不再接受新任务
	_, err = s.AddFunc("late", "* * * * * *", func() error { return nil })
	assert.ErrorIs(t, err, ErrSchedulerClosed)

	info, err := s.JobInfo("every-second")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.RunCount, int64(1))
}

func TestJobOptions_Validate(t *testing.T) {
	opts := JobOptions{MaxRetries: 1}
	require.NoError(t, opts.validate())
	assert.Equal(t, BackoffExponential, opts.BackoffStrategy)
	assert.Equal(t, 100*time.Millisecond, opts.InitialBackoff)
	assert.Equal(t, 10*time.Second, opts.MaxBackoff)
	assert.Equal(t, 2.0, opts.BackoffMultiplier)

	bad := JobOptions{MaxRetries: -1}
	assert.ErrorIs(t, bad.validate(), ErrInvalidConfig)

	weird := JobOptions{BackoffStrategy: "random"}
	assert.ErrorIs(t, weird.validate(), ErrInvalidConfig)
}
