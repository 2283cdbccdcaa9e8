package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 常用类型的别名，调用方无需同时引入 client_golang

type (
	// Labels 标签集合
	Labels = prometheus.Labels

	// CounterVec Counter 向量
	CounterVec = prometheus.CounterVec

	// GaugeVec Gauge 向量
	GaugeVec = prometheus.GaugeVec

	// HistogramVec Histogram 向量
	HistogramVec = prometheus.HistogramVec

	// SummaryVec Summary 向量
	SummaryVec = prometheus.SummaryVec

	// Registry 指标注册器
	Registry = prometheus.Registry

	// Collector 采集器接口
	Collector = prometheus.Collector
)
