package sentry

import (
	"github.com/getsentry/sentry-go"
)

// Level 事件级别
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// sentryLevel 映射到 SDK 级别，级别字符串与 SDK 一致，
// 未知取值按 error 处理。
func (l Level) sentryLevel() sentry.Level {
	switch l {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFatal:
		return sentry.Level(l)
	default:
		return sentry.LevelError
	}
}

// Stats 累计事件计数
type Stats struct {
	EventsTotal    uint64 // 进入上报流程的事件数
	EventsCaptured uint64 // 捕获成功数
	EventsDropped  uint64 // 被 SDK 丢弃数
}
