// pkg/chat/config.go
package chat

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/lk2023060901/xchat/pkg/security"
)

// TLSConfig TLS 配置
type TLSConfig struct {
	// CertFile 客户端证书文件
	CertFile string `json:"cert_file" yaml:"cert_file" mapstructure:"cert_file"`
	// KeyFile 客户端私钥文件
	KeyFile string `json:"key_file" yaml:"key_file" mapstructure:"key_file"`
	// CAFile CA 证书文件
	CAFile string `json:"ca_file" yaml:"ca_file" mapstructure:"ca_file"`
	// InsecureSkipVerify 跳过证书验证（仅用于测试）
	InsecureSkipVerify bool `json:"insecure_skip_verify" yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	// MinVersion 最低 TLS 版本
	MinVersion uint16 `json:"min_version" yaml:"min_version" mapstructure:"min_version"`
}

// BuildTLSConfig 构建 tls.Config
// 提供了证书和私钥时按 mTLS 处理
func (c *TLSConfig) BuildTLSConfig() (*tls.Config, error) {
	return security.NewClientTLSConfig(&security.TLSConfig{
		CertFile:           c.CertFile,
		KeyFile:            c.KeyFile,
		CAFile:             c.CAFile,
		MutualTLS:          c.CertFile != "" && c.KeyFile != "",
		InsecureSkipVerify: c.InsecureSkipVerify,
		MinVersion:         c.MinVersion,
	})
}

// HeartbeatConfig 心跳配置
type HeartbeatConfig struct {
	// Enable 是否启用心跳
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`
	// Interval 心跳间隔，为 0 时跟随网关下发的间隔
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
}

// DefaultHeartbeatConfig 默认心跳配置
func DefaultHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{
		Enable:   true,
		Interval: 0,
	}
}

// ReconnectConfig 重连配置
type ReconnectConfig struct {
	// Enable 是否启用自动重连
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`
	// MaxAttempts 最大重连次数
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
	// BaseDelay 初始重连延迟
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`
	// MaxDelay 最大重连延迟
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
	// JitterMax 随机抖动上限，叠加在指数退避之上
	JitterMax time.Duration `json:"jitter_max" yaml:"jitter_max" mapstructure:"jitter_max"`
}

// DefaultReconnectConfig 默认重连配置
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enable:      true,
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		JitterMax:   1 * time.Second,
	}
}

// QueueConfig 离线消息队列配置
type QueueConfig struct {
	// MaxSize 队列容量，超出时丢弃最旧的消息
	MaxSize int `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	// MaxAge 消息最大存活时间，超龄消息在清理时被丢弃
	MaxAge time.Duration `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
	// SweepInterval 周期清理间隔
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// DefaultQueueConfig 默认队列配置
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxSize:       1000,
		MaxAge:        5 * time.Minute,
		SweepInterval: 60 * time.Second,
	}
}

// ClientConfig 聊天客户端配置
type ClientConfig struct {
	// BaseURL 网关 HTTP 基础地址，如 https://api.example.com
	// 发现接口、票据接口和 WebSocket 地址都由它派生
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Token 静态访问令牌，也可以通过 WithTokenProvider 动态提供
	Token string `json:"token" yaml:"token" mapstructure:"token"`

	// ReadBufferSize 读缓冲区大小
	ReadBufferSize int `json:"read_buffer_size" yaml:"read_buffer_size" mapstructure:"read_buffer_size"`

	// WriteBufferSize 写缓冲区大小
	WriteBufferSize int `json:"write_buffer_size" yaml:"write_buffer_size" mapstructure:"write_buffer_size"`

	// ConnectTimeout 单次连接建立的总超时（发现 + 票据 + 握手）
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// ReadTimeout 读超时
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout 写超时
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`

	// SendQueueSize 连接内部发送通道大小
	SendQueueSize int `json:"send_queue_size" yaml:"send_queue_size" mapstructure:"send_queue_size"`

	// TicketTTL 请求票据时的期望有效期
	TicketTTL time.Duration `json:"ticket_ttl" yaml:"ticket_ttl" mapstructure:"ticket_ttl"`

	// RateWindow 发送频率限制的滑动窗口长度
	RateWindow time.Duration `json:"rate_window" yaml:"rate_window" mapstructure:"rate_window"`

	// MaxMessageSize 出站消息大小上限，网关下发的限制优先于该值
	MaxMessageSize int64 `json:"max_message_size" yaml:"max_message_size" mapstructure:"max_message_size"`

	// Heartbeat 心跳配置
	Heartbeat HeartbeatConfig `json:"heartbeat" yaml:"heartbeat" mapstructure:"heartbeat"`

	// Reconnect 重连配置
	Reconnect ReconnectConfig `json:"reconnect" yaml:"reconnect" mapstructure:"reconnect"`

	// Queue 离线队列配置
	Queue QueueConfig `json:"queue" yaml:"queue" mapstructure:"queue"`

	// EnableCompression 是否启用压缩
	EnableCompression bool `json:"enable_compression" yaml:"enable_compression" mapstructure:"enable_compression"`

	// Headers 附加到发现、票据和握手请求的自定义头
	Headers map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`

	// TLS TLS 配置
	TLS *TLSConfig `json:"tls" yaml:"tls" mapstructure:"tls"`
}

// DefaultClientConfig 默认客户端配置
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		SendQueueSize:   256,
		TicketTTL:       60 * time.Second,
		RateWindow:      60 * time.Second,
		MaxMessageSize:  10240,
		Heartbeat:       DefaultHeartbeatConfig(),
		Reconnect:       DefaultReconnectConfig(),
		Queue:           DefaultQueueConfig(),
	}
}

// Validate 验证配置并填充默认值
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base url is required", ErrInvalidEndpoint)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}

	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = 4096
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = 4096
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.TicketTTL <= 0 {
		c.TicketTTL = 60 * time.Second
	}
	if c.RateWindow <= 0 {
		c.RateWindow = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 10240
	}
	if c.Reconnect.MaxAttempts <= 0 {
		c.Reconnect.MaxAttempts = 5
	}
	if c.Reconnect.BaseDelay <= 0 {
		c.Reconnect.BaseDelay = 1 * time.Second
	}
	if c.Reconnect.MaxDelay <= 0 {
		c.Reconnect.MaxDelay = 30 * time.Second
	}
	if c.Reconnect.JitterMax < 0 {
		c.Reconnect.JitterMax = 1 * time.Second
	}
	if c.Queue.MaxSize <= 0 {
		c.Queue.MaxSize = 1000
	}
	if c.Queue.MaxAge <= 0 {
		c.Queue.MaxAge = 5 * time.Minute
	}
	if c.Queue.SweepInterval <= 0 {
		c.Queue.SweepInterval = 60 * time.Second
	}

	return nil
}
