package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// defaultObjectives Summary 缺省分位数
var defaultObjectives = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}

// registerMetric 统一注册入口。先以 nil 占位防止同名并发注册，
// Registry 拒绝时回滚占位。
func registerMetric[M prometheus.Collector](c *Client, store *sync.Map, name string, build func() M) (M, error) {
	var zero M

	if c.IsClosed() {
		return zero, ErrClientClosed
	}
	if _, loaded := store.LoadOrStore(name, nil); loaded {
		return zero, ErrMetricExists
	}

	m := build()
	if err := c.registry.Register(m); err != nil {
		store.Delete(name)
		return zero, err
	}

	store.Store(name, m)
	return m, nil
}

// lookupMetric 按名称取回指标，nil 占位视为不存在
func lookupMetric[M any](store *sync.Map, name string) (M, bool) {
	var zero M

	v, ok := store.Load(name)
	if !ok || v == nil {
		return zero, false
	}
	return v.(M), true
}

// opts 应用全局前缀
func (c *Client) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}
}

// NewCounter 创建并注册 Counter
func (c *Client) NewCounter(name, help string, labels []string) (*CounterVec, error) {
	return registerMetric(c, &c.counters, name, func() *CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts(c.opts(name, help)), labels)
	})
}

// MustNewCounter 创建 Counter，失败则 panic
func (c *Client) MustNewCounter(name, help string, labels []string) *CounterVec {
	counter, err := c.NewCounter(name, help, labels)
	if err != nil {
		panic(err)
	}
	return counter
}

// GetCounter 取回已注册的 Counter
func (c *Client) GetCounter(name string) (*CounterVec, bool) {
	return lookupMetric[*CounterVec](&c.counters, name)
}

// NewGauge 创建并注册 Gauge
func (c *Client) NewGauge(name, help string, labels []string) (*GaugeVec, error) {
	return registerMetric(c, &c.gauges, name, func() *GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts(c.opts(name, help)), labels)
	})
}

// MustNewGauge 创建 Gauge，失败则 panic
func (c *Client) MustNewGauge(name, help string, labels []string) *GaugeVec {
	gauge, err := c.NewGauge(name, help, labels)
	if err != nil {
		panic(err)
	}
	return gauge
}

// GetGauge 取回已注册的 Gauge
func (c *Client) GetGauge(name string) (*GaugeVec, bool) {
	return lookupMetric[*GaugeVec](&c.gauges, name)
}

// NewHistogram 创建并注册 Histogram，buckets 为 nil 时使用 DefBuckets
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*HistogramVec, error) {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	return registerMetric(c, &c.histograms, name, func() *HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: c.config.Namespace,
			Subsystem: c.config.Subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		}, labels)
	})
}

// MustNewHistogram 创建 Histogram，失败则 panic
func (c *Client) MustNewHistogram(name, help string, labels []string, buckets []float64) *HistogramVec {
	histogram, err := c.NewHistogram(name, help, labels, buckets)
	if err != nil {
		panic(err)
	}
	return histogram
}

// GetHistogram 取回已注册的 Histogram
func (c *Client) GetHistogram(name string) (*HistogramVec, bool) {
	return lookupMetric[*HistogramVec](&c.histograms, name)
}

// NewSummary 创建并注册 Summary，objectives 为 nil 时使用缺省分位数
func (c *Client) NewSummary(name, help string, labels []string, objectives map[float64]float64) (*SummaryVec, error) {
	if objectives == nil {
		objectives = defaultObjectives
	}

	return registerMetric(c, &c.summaries, name, func() *SummaryVec {
		return prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace:  c.config.Namespace,
			Subsystem:  c.config.Subsystem,
			Name:       name,
			Help:       help,
			Objectives: objectives,
		}, labels)
	})
}

// MustNewSummary 创建 Summary，失败则 panic
func (c *Client) MustNewSummary(name, help string, labels []string, objectives map[float64]float64) *SummaryVec {
	summary, err := c.NewSummary(name, help, labels, objectives)
	if err != nil {
		panic(err)
	}
	return summary
}

// GetSummary 取回已注册的 Summary
func (c *Client) GetSummary(name string) (*SummaryVec, bool) {
	return lookupMetric[*SummaryVec](&c.summaries, name)
}

// RegisterCollector 注册自定义采集器
func (c *Client) RegisterCollector(collector Collector) error {
	if c.IsClosed() {
		return ErrClientClosed
	}
	return c.registry.Register(collector)
}

// MustRegisterCollector 注册自定义采集器，失败则 panic
func (c *Client) MustRegisterCollector(collector Collector) {
	if err := c.RegisterCollector(collector); err != nil {
		panic(err)
	}
}
