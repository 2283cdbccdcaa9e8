package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xchat/pkg/logger"
)

func newDiscoveryServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/config" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestDiscoveryClient_Fetch 测试获取网关配置
func TestDiscoveryClient_Fetch(t *testing.T) {
	srv := newDiscoveryServer(t, http.StatusOK, `{
		"websocket_config": {
			"version": "1.2",
			"endpoint": "/ws/chat",
			"ticket_path": "/ws/ticket",
			"features": {"optimistic_messages": true},
			"connection_limits": {
				"max_connections_per_user": 3,
				"max_message_rate": 60,
				"max_message_size": 8192,
				"heartbeat_interval": 25000
			}
		}
	}`)

	d := NewDiscoveryClient(srv.URL, srv.Client(), nil, logger.Default())
	cfg, err := d.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2", cfg.Version)
	assert.Equal(t, "/ws/chat", cfg.Endpoint)
	assert.True(t, cfg.FeatureEnabled("optimistic_messages"))
	assert.False(t, cfg.FeatureEnabled("unknown"))
	assert.Equal(t, 60, cfg.ConnectionLimits.MaxMessageRate)
	assert.Equal(t, int64(8192), cfg.ConnectionLimits.MaxMessageSize)
	assert.Equal(t, "25s", cfg.ConnectionLimits.HeartbeatDuration().String())
}

// TestDiscoveryClient_FetchDefaults 测试缺省路径填充
func TestDiscoveryClient_FetchDefaults(t *testing.T) {
	srv := newDiscoveryServer(t, http.StatusOK, `{"websocket_config": {"version": "1.0"}}`)

	d := NewDiscoveryClient(srv.URL, srv.Client(), nil, logger.Default())
	cfg, err := d.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/ws/chat", cfg.Endpoint)
	assert.Equal(t, "/ws/ticket", cfg.TicketPath)
	assert.Equal(t, "30s", cfg.ConnectionLimits.HeartbeatDuration().String())
}

// TestDiscoveryClient_VersionGate 测试网关版本兼容性检查
func TestDiscoveryClient_VersionGate(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0", false},
		{"1.4.2", false},
		{"1.99", false},
		{"0.9", true},
		{"2.0", true},
		{"2.1.3", true},
		{"garbage", true},
		{"", false}, // 未上报版本时跳过检查
	}

	for _, tt := range tests {
		t.Run("version "+tt.version, func(t *testing.T) {
			body := fmt.Sprintf(`{"websocket_config": {"version": %q}}`, tt.version)
			srv := newDiscoveryServer(t, http.StatusOK, body)

			d := NewDiscoveryClient(srv.URL, srv.Client(), nil, logger.Default())
			_, err := d.Fetch(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDiscovery)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestDiscoveryClient_FetchErrors 测试发现失败场景
func TestDiscoveryClient_FetchErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := newDiscoveryServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
		d := NewDiscoveryClient(srv.URL, srv.Client(), nil, logger.Default())
		_, err := d.Fetch(context.Background())
		assert.ErrorIs(t, err, ErrDiscovery)
	})

	t.Run("missing websocket_config", func(t *testing.T) {
		srv := newDiscoveryServer(t, http.StatusOK, `{}`)
		d := NewDiscoveryClient(srv.URL, srv.Client(), nil, logger.Default())
		_, err := d.Fetch(context.Background())
		assert.ErrorIs(t, err, ErrDiscovery)
	})

	t.Run("unreachable", func(t *testing.T) {
		d := NewDiscoveryClient("http://127.0.0.1:1", http.DefaultClient, nil, logger.Default())
		_, err := d.Fetch(context.Background())
		assert.ErrorIs(t, err, ErrDiscovery)
	})
}

// TestBuildDialURL 测试握手地址构建
func TestBuildDialURL(t *testing.T) {
	cfg := &GatewayConfig{Endpoint: "/ws/chat"}

	tests := []struct {
		name    string
		baseURL string
		want    string
		wantErr bool
	}{
		{"https to wss", "https://chat.example.com", "wss://chat.example.com/ws/chat?ticket=t-1", false},
		{"http to ws", "http://chat.example.com:8080", "ws://chat.example.com:8080/ws/chat?ticket=t-1", false},
		{"trailing slash", "https://chat.example.com/", "wss://chat.example.com/ws/chat?ticket=t-1", false},
		{"path prefix", "https://chat.example.com/api", "wss://chat.example.com/api/ws/chat?ticket=t-1", false},
		{"bad scheme", "ftp://chat.example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildDialURL(tt.baseURL, cfg, "t-1")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEndpoint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDiscoveryClient_TicketURL 测试票据地址拼接
func TestDiscoveryClient_TicketURL(t *testing.T) {
	d := NewDiscoveryClient("https://chat.example.com/", nil, nil, logger.Default())
	cfg := &GatewayConfig{TicketPath: "/ws/ticket"}
	assert.Equal(t, "https://chat.example.com/ws/ticket", d.TicketURL(cfg))
}
