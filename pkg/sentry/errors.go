package sentry

import "errors"

var (
	// ErrNilConfig 配置为 nil
	ErrNilConfig = errors.New("sentry: nil config")

	// ErrInvalidConfig 配置取值非法
	ErrInvalidConfig = errors.New("sentry: invalid config")

	// ErrInvalidDSN DSN 缺失或非法
	ErrInvalidDSN = errors.New("sentry: invalid DSN")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("sentry: client closed")
)
