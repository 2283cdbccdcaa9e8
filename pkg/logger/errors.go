// pkg/logger/errors.go
package logger

import "errors"

var (
	// ErrInvalidOutputPath 启用文件输出但未提供路径
	ErrInvalidOutputPath = errors.New("logger: output path required when file output enabled")
	// ErrNoOutputEnabled 控制台和文件输出均未启用
	ErrNoOutputEnabled = errors.New("logger: no output enabled")
)
