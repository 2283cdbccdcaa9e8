package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xchat/pkg/chat"
	"github.com/lk2023060901/xchat/pkg/chat/chattest"
	"github.com/lk2023060901/xchat/pkg/logger"
	"github.com/lk2023060901/xchat/pkg/security"
)

func probeClientConfig(baseURL string) *chat.ClientConfig {
	return &chat.ClientConfig{
		BaseURL:        baseURL,
		Token:          "probe-token",
		ConnectTimeout: 2 * time.Second,
		WriteTimeout:   2 * time.Second,
		Reconnect: chat.ReconnectConfig{
			Enable:      true,
			MaxAttempts: 3,
			BaseDelay:   20 * time.Millisecond,
			MaxDelay:    200 * time.Millisecond,
			JitterMax:   10 * time.Millisecond,
		},
	}
}

func TestRunner_StartStop(t *testing.T) {
	srv := chattest.NewServer()
	defer srv.Close()

	cfg := &Config{
		Clients:     2,
		SendRate:    40,
		SendBurst:   1,
		MessageType: "probe_echo",
		PayloadSize: 64,
		Optimistic:  true,
		ReportSpec:  "*/30 * * * * *",
	}

	r, err := New(probeClientConfig(srv.URL()), cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, r.Start())

	// 重复启动被拒绝
	assert.Error(t, r.Start())

	assert.Eventually(t, func() bool {
		return srv.ActiveConns() == 2
	}, 3*time.Second, 20*time.Millisecond)

	// 两个客户端都在发
	assert.Eventually(t, func() bool {
		return len(srv.Received()) >= 4
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, r.GracefulStop())
	assert.Eventually(t, func() bool {
		return srv.ActiveConns() == 0
	}, 2*time.Second, 20*time.Millisecond)

	// 重复停止无副作用
	assert.NoError(t, r.GracefulStop())
}

func TestRunner_EchoLatency(t *testing.T) {
	srv := chattest.NewServer()
	defer srv.Close()

	cfg := &Config{
		Clients:    1,
		SendRate:   20,
		Optimistic: true,
	}

	r, err := New(probeClientConfig(srv.URL()), cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, r.Start())
	defer r.GracefulStop()

	require.Eventually(t, func() bool {
		return len(srv.Received()) >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// 把收到的乐观消息原样回声给客户端
	received := srv.Received()
	srv.SendToAll(received[0])

	assert.Eventually(t, func() bool {
		return r.window.GetStats().TotalCount >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRunner_DurationStops(t *testing.T) {
	srv := chattest.NewServer()
	defer srv.Close()

	cfg := &Config{
		Clients:  1,
		SendRate: 50,
		Duration: 200 * time.Millisecond,
	}

	r, err := New(probeClientConfig(srv.URL()), cfg, logger.Default())
	require.NoError(t, err)
	require.NoError(t, r.Start())

	// 时长耗尽后客户端应自行退出
	assert.Eventually(t, func() bool {
		return srv.ActiveConns() == 0
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, r.GracefulStop())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.Clients)
	assert.Equal(t, 1, cfg.SendBurst)
	assert.Equal(t, "probe_echo", cfg.MessageType)
	assert.Equal(t, 128, cfg.PayloadSize)
	assert.Equal(t, "*/30 * * * * *", cfg.ReportSpec)
	assert.EqualValues(t, 10001, cfg.BaseUID)
}

func TestActor_BuildContent(t *testing.T) {
	a := &actor{
		id: "probe-1",
		runner: &Runner{
			cfg: &Config{PayloadSize: 64},
		},
	}

	content := a.buildContent(7)
	assert.Len(t, content, 64)
	assert.Contains(t, content, "probe-1#7")

	// 目标大小小于前缀时不截断
	a.runner.cfg.PayloadSize = 4
	short := a.buildContent(8)
	assert.Equal(t, "probe-1#8 ", short)
}

func TestMintToken(t *testing.T) {
	mgr, err := security.NewJWTManager(&security.JWTConfig{
		SecretKey: "probe-test-secret",
		Algorithm: "HS256",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	token, err := mintToken(mgr, 10042)
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "10042", claims.Payload["uid"])
}
