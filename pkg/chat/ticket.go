// pkg/chat/ticket.go
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xchat/pkg/cache/lru"
	"github.com/lk2023060901/xchat/pkg/logger"
	"github.com/lk2023060901/xchat/pkg/security"
)

// Ticket 一次性连接票据
type Ticket struct {
	// Value 票据值，握手时作为查询参数传递
	Value string
	// IssuedAt 签发时间
	IssuedAt time.Time
	// TTL 有效期
	TTL time.Duration
}

// Expired 判断票据是否过期
func (t *Ticket) Expired(now time.Time) bool {
	if t.TTL <= 0 {
		return false
	}
	return !now.Before(t.IssuedAt.Add(t.TTL))
}

// TokenProvider 访问令牌提供者
type TokenProvider interface {
	// Token 返回当前有效的访问令牌
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider 静态令牌提供者
type StaticTokenProvider string

// Token 实现 TokenProvider 接口
func (p StaticTokenProvider) Token(ctx context.Context) (string, error) {
	return string(p), nil
}

// TicketClient 票据客户端
// 未消费的票据在有效期内缓存复用，握手成功后被消费；
// 网关以认证错误拒绝握手时必须调用 ClearCache，强制下次重新获取
type TicketClient struct {
	httpClient *http.Client
	tokens     TokenProvider
	headers    map[string]string
	logger     logger.Logger
	cache      *lru.LRU[string, *Ticket]
}

// NewTicketClient 创建票据客户端
func NewTicketClient(httpClient *http.Client, tokens TokenProvider, headers map[string]string, log logger.Logger) *TicketClient {
	return &TicketClient{
		httpClient: httpClient,
		tokens:     tokens,
		headers:    headers,
		logger:     log,
		cache: lru.New[string, *Ticket](&lru.Config{
			MaxSize: 4,
		}),
	}
}

// AcquireTicket 获取连接票据
// 优先复用缓存中未过期的票据，否则携带访问令牌向票据接口请求新票据
func (tc *TicketClient) AcquireTicket(ctx context.Context, endpoint string, ttl time.Duration) (*Ticket, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrTicketAcquisition)
	}

	now := time.Now()
	if cached, ok := tc.cache.Get(endpoint); ok && !cached.Expired(now) {
		tc.logger.Debug("复用缓存票据", "endpoint", endpoint)
		return cached, nil
	}

	token, err := tc.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTicketAcquisition, err)
	}
	if token == "" {
		return nil, ErrNoToken
	}

	// 令牌本身已过期时直接失败，避免一次注定被拒绝的请求
	if expiry, err := security.InspectExpiry(token); err == nil && !expiry.IsZero() && now.After(expiry) {
		return nil, ErrTokenExpired
	}

	ticket, err := tc.fetch(ctx, endpoint, token, ttl)
	if err != nil {
		return nil, err
	}

	tc.cache.SetWithTTL(endpoint, ticket, ticket.TTL)
	return ticket, nil
}

// Consume 消费票据，握手成功后票据随连接失效
func (tc *TicketClient) Consume(endpoint string) {
	tc.cache.Delete(endpoint)
}

// ClearCache 清空票据缓存
func (tc *TicketClient) ClearCache() {
	tc.cache.Clear()
}

// Close 释放票据缓存
func (tc *TicketClient) Close() error {
	return tc.cache.Close()
}

// fetch 向票据接口请求新票据
func (tc *TicketClient) fetch(ctx context.Context, endpoint, token string, ttl time.Duration) (*Ticket, error) {
	body, err := json.Marshal(map[string]any{
		"ttl": int64(ttl.Seconds()),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal ticket request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTicketAcquisition, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	for k, v := range tc.headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTicketAcquisition, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrTicketAcquisition, resp.StatusCode, bytes.TrimSpace(data))
	}

	var out struct {
		Ticket string `json:"ticket"`
		TTL    int64  `json:"ttl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTicketAcquisition, err)
	}
	if out.Ticket == "" {
		return nil, fmt.Errorf("%w: empty ticket in response", ErrTicketAcquisition)
	}

	effective := ttl
	if out.TTL > 0 {
		effective = time.Duration(out.TTL) * time.Second
	}

	tc.logger.Debug("获取连接票据",
		"endpoint", endpoint,
		"ttl", effective)

	return &Ticket{
		Value:    out.Ticket,
		IssuedAt: time.Now(),
		TTL:      effective,
	}, nil
}
