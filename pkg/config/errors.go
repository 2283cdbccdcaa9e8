package config

import "errors"

var (
	// ErrNilConfig 待校验的配置为 nil
	ErrNilConfig = errors.New("config: nil config")
	// ErrValidationFailed 配置校验失败，详情在包装消息里
	ErrValidationFailed = errors.New("config: validation failed")
)
