package prometheus

import "errors"

var (
	// ErrInvalidConfig 配置取值非法
	ErrInvalidConfig = errors.New("prometheus: invalid config")

	// ErrMetricExists 同名指标已注册
	ErrMetricExists = errors.New("prometheus: metric already exists")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("prometheus: client closed")
)
