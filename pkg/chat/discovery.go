// pkg/chat/discovery.go
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// 网关默认路径
const (
	defaultDiscoveryPath = "/ws/config"
	defaultGatewayPath   = "/ws/chat"
	defaultTicketPath    = "/ws/ticket"
)

// supportedGatewayVersions 客户端兼容的网关版本范围
var supportedGatewayVersions = goversion.MustConstraints(goversion.NewConstraint(">= 1.0, < 2.0"))

// ConnectionLimits 网关下发的连接限制
type ConnectionLimits struct {
	// MaxConnectionsPerUser 单用户最大连接数
	MaxConnectionsPerUser int `json:"max_connections_per_user"`
	// MaxMessageRate 滑动窗口内允许的最大发送数，0 表示不限制
	MaxMessageRate int `json:"max_message_rate"`
	// MaxMessageSize 出站消息最大字节数
	MaxMessageSize int64 `json:"max_message_size"`
	// HeartbeatInterval 心跳间隔（毫秒）
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// HeartbeatDuration 返回心跳间隔，未下发时使用 30 秒
func (l *ConnectionLimits) HeartbeatDuration() time.Duration {
	if l.HeartbeatInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(l.HeartbeatInterval) * time.Millisecond
}

// AuthPolicy 网关认证策略描述
type AuthPolicy struct {
	// Methods 支持的认证方式
	Methods []string `json:"methods"`
	// TokenValidation 令牌校验方式
	TokenValidation string `json:"token_validation"`
	// SessionHandling 会话处理方式
	SessionHandling string `json:"session_handling"`
}

// GatewayConfig 网关发现接口返回的配置
type GatewayConfig struct {
	// Version 网关版本
	Version string `json:"version"`
	// Endpoint WebSocket 路径
	Endpoint string `json:"endpoint"`
	// TicketPath 票据接口路径
	TicketPath string `json:"ticket_path"`
	// Features 功能开关
	Features map[string]bool `json:"features"`
	// ConnectionLimits 连接限制
	ConnectionLimits ConnectionLimits `json:"connection_limits"`
	// Auth 认证策略
	Auth AuthPolicy `json:"auth"`
}

// FeatureEnabled 判断功能开关是否开启
func (c *GatewayConfig) FeatureEnabled(name string) bool {
	return c.Features[name]
}

// DiscoveryClient 网关发现客户端
type DiscoveryClient struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	logger     logger.Logger
}

// NewDiscoveryClient 创建发现客户端
func NewDiscoveryClient(baseURL string, httpClient *http.Client, headers map[string]string, log logger.Logger) *DiscoveryClient {
	return &DiscoveryClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		headers:    headers,
		logger:     log,
	}
}

// Fetch 获取网关配置并校验版本兼容性
func (d *DiscoveryClient) Fetch(ctx context.Context) (*GatewayConfig, error) {
	endpoint := d.baseURL + defaultDiscoveryPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrDiscovery, resp.StatusCode, bytes.TrimSpace(data))
	}

	var out struct {
		WebsocketConfig *GatewayConfig `json:"websocket_config"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDiscovery, err)
	}
	if out.WebsocketConfig == nil {
		return nil, fmt.Errorf("%w: missing websocket_config", ErrDiscovery)
	}

	cfg := out.WebsocketConfig
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGatewayPath
	}
	if cfg.TicketPath == "" {
		cfg.TicketPath = defaultTicketPath
	}

	if cfg.Version != "" {
		v, err := goversion.NewVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: unparsable gateway version %q", ErrDiscovery, cfg.Version)
		}
		if !supportedGatewayVersions.Check(v) {
			return nil, fmt.Errorf("%w: unsupported gateway version %s (want %s)", ErrDiscovery, cfg.Version, supportedGatewayVersions)
		}
	}

	d.logger.Debug("获取网关配置",
		"version", cfg.Version,
		"endpoint", cfg.Endpoint,
		"max_message_rate", cfg.ConnectionLimits.MaxMessageRate,
		"max_message_size", cfg.ConnectionLimits.MaxMessageSize)

	return cfg, nil
}

// TicketURL 返回票据接口的完整地址
func (d *DiscoveryClient) TicketURL(cfg *GatewayConfig) string {
	return d.baseURL + cfg.TicketPath
}

// BuildDialURL 根据网关配置和票据构建 WebSocket 握手地址
// HTTP 基础地址按 scheme 映射为 ws/wss，票据作为查询参数传递
func BuildDialURL(baseURL string, cfg *GatewayConfig, ticket string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + cfg.Endpoint
	q := u.Query()
	q.Set("ticket", ticket)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
