// pkg/logger/rotation.go
package logger

import (
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newRotationWriter 按配置创建轮换 writer，仅在启用文件输出时调用
func newRotationWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	if cfg.Type == RotationByTime {
		return newTimeWriter(cfg, outputPath)
	}
	return newSizeWriter(cfg, outputPath), nil
}

// newSizeWriter 基于 lumberjack 的按大小轮换
func newSizeWriter(cfg *RotationConfig, outputPath string) io.Writer {
	return &lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

// newTimeWriter 基于 file-rotatelogs 的按时间轮换
// 间隔或保留时长解析失败时退回每天轮换、保留 7 天
func newTimeWriter(cfg *RotationConfig, outputPath string) (io.Writer, error) {
	interval, err := time.ParseDuration(cfg.RotationTime)
	if err != nil {
		interval = 24 * time.Hour
	}
	keep, err := time.ParseDuration(cfg.MaxAgeTime)
	if err != nil {
		keep = 7 * 24 * time.Hour
	}

	pattern := outputPath + ".%Y%m%d%H"
	if cfg.RotationPattern != "" {
		pattern = outputPath + cfg.RotationPattern
	}

	return rotatelogs.New(
		pattern,
		rotatelogs.WithLinkName(outputPath),
		rotatelogs.WithRotationTime(interval),
		rotatelogs.WithMaxAge(keep),
	)
}
