package sentry

import (
	"sync"

	"github.com/getsentry/sentry-go"
)

// EventHook 在事件捕获成功后收到回调
type EventHook interface {
	OnCapture(event *sentry.Event)
}

// EventHookFunc 函数式钩子
type EventHookFunc func(event *sentry.Event)

// OnCapture 实现 EventHook
func (f EventHookFunc) OnCapture(event *sentry.Event) {
	f(event)
}

// hookSet 钩子集合。fire 在独立 goroutine 中调用每个钩子，
// 钩子内的 panic 被吞掉，不影响上报主流程。
type hookSet struct {
	mu    sync.RWMutex
	hooks []EventHook
}

func newHookSet() *hookSet {
	return &hookSet{}
}

func (s *hookSet) add(hook EventHook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, hook)
	s.mu.Unlock()
}

func (s *hookSet) remove(hook EventHook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, h := range s.hooks {
		if h == hook {
			s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
			return
		}
	}
}

func (s *hookSet) fire(event *sentry.Event) {
	s.mu.RLock()
	hooks := make([]EventHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()

	for _, hook := range hooks {
		go func(h EventHook) {
			defer func() { _ = recover() }()
			h.OnCapture(event)
		}(hook)
	}
}
