// pkg/chat/client_metrics.go
package chat

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics 客户端 Prometheus 指标
type ClientMetrics struct {
	connectsTotal    prometheus.Counter
	disconnectsTotal prometheus.Counter
	reconnectsTotal  prometheus.Counter
	connectionState  prometheus.Gauge

	messagesSent     prometheus.Counter
	messagesReceived prometheus.Counter
	bytesSent        prometheus.Counter
	bytesReceived    prometheus.Counter

	messagesQueued  prometheus.Counter
	messagesDropped prometheus.Counter
	queueDepth      prometheus.Gauge
	rateLimited     prometheus.Counter

	heartbeatsSent     prometheus.Counter
	heartbeatsReceived prometheus.Counter

	errorsTotal *prometheus.CounterVec
}

// NewClientMetrics 创建并注册客户端指标
func NewClientMetrics(registerer prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		connectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "connects_total",
			Help:      "Total number of successful connections",
		}),
		disconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "disconnects_total",
			Help:      "Total number of disconnections",
		}),
		reconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "reconnects_total",
			Help:      "Total number of successful reconnections",
		}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "connection_state",
			Help:      "Current connection state (0=disconnected 1=connecting 2=connected 3=disconnecting 4=reconnecting 5=error)",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent",
		}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "bytes_sent_total",
			Help:      "Total bytes sent",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "bytes_received_total",
			Help:      "Total bytes received",
		}),
		messagesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "messages_queued_total",
			Help:      "Total number of messages placed in the offline queue",
		}),
		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "messages_dropped_total",
			Help:      "Total number of queued messages dropped by capacity or age",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "queue_depth",
			Help:      "Current number of messages in the offline queue",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "rate_limited_total",
			Help:      "Total number of sends deferred by the rate limiter",
		}),
		heartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "heartbeats_sent_total",
			Help:      "Total number of ping frames sent",
		}),
		heartbeatsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "heartbeats_received_total",
			Help:      "Total number of pong frames received",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat",
			Subsystem: "client",
			Name:      "errors_total",
			Help:      "Total number of errors by type",
		}, []string{"type"}),
	}

	registerer.MustRegister(
		m.connectsTotal,
		m.disconnectsTotal,
		m.reconnectsTotal,
		m.connectionState,
		m.messagesSent,
		m.messagesReceived,
		m.bytesSent,
		m.bytesReceived,
		m.messagesQueued,
		m.messagesDropped,
		m.queueDepth,
		m.rateLimited,
		m.heartbeatsSent,
		m.heartbeatsReceived,
		m.errorsTotal,
	)

	return m
}

// OnStateChange 记录状态变更
func (m *ClientMetrics) OnStateChange(state ConnectionState) {
	m.connectionState.Set(float64(state))
}

// OnConnected 记录连接建立
func (m *ClientMetrics) OnConnected() {
	m.connectsTotal.Inc()
}

// OnDisconnected 记录连接断开
func (m *ClientMetrics) OnDisconnected() {
	m.disconnectsTotal.Inc()
}

// OnReconnected 记录重连成功
func (m *ClientMetrics) OnReconnected() {
	m.reconnectsTotal.Inc()
}

// OnMessageSent 记录消息发送
func (m *ClientMetrics) OnMessageSent(bytes int) {
	m.messagesSent.Inc()
	m.bytesSent.Add(float64(bytes))
}

// OnMessageReceived 记录消息接收
func (m *ClientMetrics) OnMessageReceived(bytes int) {
	m.messagesReceived.Inc()
	m.bytesReceived.Add(float64(bytes))
}

// OnMessageQueued 记录消息入队
func (m *ClientMetrics) OnMessageQueued(depth int) {
	m.messagesQueued.Inc()
	m.queueDepth.Set(float64(depth))
}

// OnMessagesDropped 记录排队消息被丢弃
func (m *ClientMetrics) OnMessagesDropped(n int) {
	m.messagesDropped.Add(float64(n))
}

// OnQueueDrained 记录队列补发完成
func (m *ClientMetrics) OnQueueDrained(depth int) {
	m.queueDepth.Set(float64(depth))
}

// OnRateLimited 记录限流
func (m *ClientMetrics) OnRateLimited() {
	m.rateLimited.Inc()
}

// OnHeartbeatSent 记录心跳发送
func (m *ClientMetrics) OnHeartbeatSent() {
	m.heartbeatsSent.Inc()
}

// OnHeartbeatReceived 记录心跳接收
func (m *ClientMetrics) OnHeartbeatReceived() {
	m.heartbeatsReceived.Inc()
}

// OnError 记录错误
func (m *ClientMetrics) OnError(errType string) {
	m.errorsTotal.WithLabelValues(errType).Inc()
}
