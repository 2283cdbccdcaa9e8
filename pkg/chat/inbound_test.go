package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeInbound_Malformed 测试非法入站帧
func TestDecodeInbound_Malformed(t *testing.T) {
	_, err := DecodeInbound([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMessageParse)

	_, err = DecodeInbound([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMessageParse)

	_, err = DecodeInbound([]byte(`{"type":"  "}`))
	assert.ErrorIs(t, err, ErrMessageParse)
}

// TestDecodeInbound_ConnectionEstablished 测试连接确认帧
func TestDecodeInbound_ConnectionEstablished(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"connection_established","payload":{"connection_id":"conn-42"}}`))
	require.NoError(t, err)
	assert.Equal(t, InboundConnectionEstablished, frame.Kind)
	assert.Equal(t, "conn-42", frame.ConnectionID)

	// 无负载时连接标识为空
	frame, err = DecodeInbound([]byte(`{"type":"connection_established"}`))
	require.NoError(t, err)
	assert.Equal(t, InboundConnectionEstablished, frame.Kind)
	assert.Empty(t, frame.ConnectionID)
}

// TestDecodeInbound_Pong 测试心跳响应帧
func TestDecodeInbound_Pong(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"pong","timestamp":1700000000000}`))
	require.NoError(t, err)
	assert.Equal(t, InboundPong, frame.Kind)
	assert.Equal(t, int64(1700000000000), frame.Envelope.Timestamp)
}

// TestDecodeInbound_ServerError 测试网关错误帧
func TestDecodeInbound_ServerError(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantCode    string
		wantMessage string
		recoverable bool
	}{
		{
			name:        "string code",
			data:        `{"type":"error","payload":{"code":"RATE_LIMITED","message":"slow down","recoverable":true,"help":"wait a bit"}}`,
			wantCode:    "RATE_LIMITED",
			wantMessage: "slow down",
			recoverable: true,
		},
		{
			name:        "numeric code",
			data:        `{"type":"error","payload":{"code":429,"message":"too many requests"}}`,
			wantCode:    "429",
			wantMessage: "too many requests",
		},
		{
			name:        "error field fallback",
			data:        `{"type":"error","payload":{"error":"session expired"}}`,
			wantMessage: "session expired",
		},
		{
			name: "empty payload",
			data: `{"type":"error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeInbound([]byte(tt.data))
			require.NoError(t, err)
			require.Equal(t, InboundServerError, frame.Kind)
			require.NotNil(t, frame.ServerError)
			assert.Equal(t, tt.wantCode, frame.ServerError.Code)
			assert.Equal(t, tt.wantMessage, frame.ServerError.Message)
			assert.Equal(t, tt.recoverable, frame.ServerError.Recoverable)
		})
	}
}

// TestDecodeInbound_Opaque 测试业务消息透传
func TestDecodeInbound_Opaque(t *testing.T) {
	frame, err := DecodeInbound([]byte(`{"type":"chat_message","payload":{"content":"hello"},"timestamp":1}`))
	require.NoError(t, err)
	assert.Equal(t, InboundOpaque, frame.Kind)
	assert.Equal(t, "chat_message", frame.Envelope.Type)
	assert.Nil(t, frame.ServerError)
	assert.Empty(t, frame.ConnectionID)
}

// TestServerError_Error 测试错误文本格式
func TestServerError_Error(t *testing.T) {
	err := &ServerError{Code: "AUTH_FAILED", Message: "bad ticket"}
	assert.Equal(t, "chat: server error AUTH_FAILED: bad ticket", err.Error())

	err = &ServerError{Message: "bad ticket"}
	assert.Equal(t, "chat: server error: bad ticket", err.Error())
}
