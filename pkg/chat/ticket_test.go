package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xchat/pkg/logger"
)

// ticketServer 返回自增票据的测试服务，并统计请求次数
func ticketServer(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req struct {
			TTL int64 `json:"ttl"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ticket": "tk-" + strconv.FormatInt(calls.Load(), 10),
			"ttl":    req.TTL,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// TestTicketClient_AcquireTicket 测试票据获取与缓存复用
func TestTicketClient_AcquireTicket(t *testing.T) {
	srv, calls := ticketServer(t, http.StatusOK)
	tc := NewTicketClient(srv.Client(), StaticTokenProvider("token-1"), nil, logger.Default())
	defer tc.Close()

	ticket, err := tc.AcquireTicket(context.Background(), srv.URL, 60*time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Value)
	assert.Equal(t, 60*time.Second, ticket.TTL)
	assert.EqualValues(t, 1, calls.Load())

	// 有效期内复用缓存，不发起新请求
	cached, err := tc.AcquireTicket(context.Background(), srv.URL, 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ticket.Value, cached.Value)
	assert.EqualValues(t, 1, calls.Load())

	// 消费后强制重新获取
	tc.Consume(srv.URL)
	fresh, err := tc.AcquireTicket(context.Background(), srv.URL, 60*time.Second)
	require.NoError(t, err)
	assert.NotEqual(t, ticket.Value, fresh.Value)
	assert.EqualValues(t, 2, calls.Load())
}

// TestTicketClient_ClearCache 测试清空票据缓存
func TestTicketClient_ClearCache(t *testing.T) {
	srv, calls := ticketServer(t, http.StatusOK)
	tc := NewTicketClient(srv.Client(), StaticTokenProvider("token-1"), nil, logger.Default())
	defer tc.Close()

	_, err := tc.AcquireTicket(context.Background(), srv.URL, 60*time.Second)
	require.NoError(t, err)

	tc.ClearCache()

	_, err = tc.AcquireTicket(context.Background(), srv.URL, 60*time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

// TestTicketClient_AcquireErrors 测试票据获取失败场景
func TestTicketClient_AcquireErrors(t *testing.T) {
	t.Run("non positive ttl", func(t *testing.T) {
		srv, _ := ticketServer(t, http.StatusOK)
		tc := NewTicketClient(srv.Client(), StaticTokenProvider("token-1"), nil, logger.Default())
		defer tc.Close()

		_, err := tc.AcquireTicket(context.Background(), srv.URL, 0)
		assert.ErrorIs(t, err, ErrTicketAcquisition)
	})

	t.Run("empty token", func(t *testing.T) {
		srv, calls := ticketServer(t, http.StatusOK)
		tc := NewTicketClient(srv.Client(), StaticTokenProvider(""), nil, logger.Default())
		defer tc.Close()

		_, err := tc.AcquireTicket(context.Background(), srv.URL, time.Minute)
		assert.ErrorIs(t, err, ErrNoToken)
		assert.EqualValues(t, 0, calls.Load())
	})

	t.Run("server rejects", func(t *testing.T) {
		srv, _ := ticketServer(t, http.StatusForbidden)
		tc := NewTicketClient(srv.Client(), StaticTokenProvider("token-1"), nil, logger.Default())
		defer tc.Close()

		_, err := tc.AcquireTicket(context.Background(), srv.URL, time.Minute)
		assert.ErrorIs(t, err, ErrTicketAcquisition)
	})

	t.Run("unreachable", func(t *testing.T) {
		tc := NewTicketClient(http.DefaultClient, StaticTokenProvider("token-1"), nil, logger.Default())
		defer tc.Close()

		_, err := tc.AcquireTicket(context.Background(), "http://127.0.0.1:1/ws/ticket", time.Minute)
		assert.ErrorIs(t, err, ErrTicketAcquisition)
	})
}

// TestTicketClient_ExpiredJWT 测试过期 JWT 直接拒绝
func TestTicketClient_ExpiredJWT(t *testing.T) {
	srv, calls := ticketServer(t, http.StatusOK)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	token, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tc := NewTicketClient(srv.Client(), StaticTokenProvider(token), nil, logger.Default())
	defer tc.Close()

	_, err = tc.AcquireTicket(context.Background(), srv.URL, time.Minute)
	assert.ErrorIs(t, err, ErrTokenExpired)
	// 令牌预检失败时不应发起请求
	assert.EqualValues(t, 0, calls.Load())
}

// TestTicketClient_OpaqueToken 测试非 JWT 令牌直接透传
func TestTicketClient_OpaqueToken(t *testing.T) {
	srv, calls := ticketServer(t, http.StatusOK)
	tc := NewTicketClient(srv.Client(), StaticTokenProvider("opaque-session-token"), nil, logger.Default())
	defer tc.Close()

	_, err := tc.AcquireTicket(context.Background(), srv.URL, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

// TestTicket_Expired 测试票据过期判断
func TestTicket_Expired(t *testing.T) {
	now := time.Now()
	ticket := &Ticket{Value: "tk", IssuedAt: now, TTL: time.Minute}

	assert.False(t, ticket.Expired(now))
	assert.False(t, ticket.Expired(now.Add(59*time.Second)))
	assert.True(t, ticket.Expired(now.Add(time.Minute)))

	// TTL 为 0 表示不过期
	forever := &Ticket{Value: "tk", IssuedAt: now}
	assert.False(t, forever.Expired(now.Add(24*time.Hour)))
}
