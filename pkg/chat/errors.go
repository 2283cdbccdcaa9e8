// pkg/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

// 连接建立阶段错误
var (
	// ErrDiscovery 网关发现失败（配置接口不可达或返回不可用配置）
	ErrDiscovery = errors.New("chat: gateway discovery failed")

	// ErrTicketAcquisition 票据获取失败
	ErrTicketAcquisition = errors.New("chat: ticket acquisition failed")

	// ErrNoToken 缺少访问令牌
	ErrNoToken = errors.New("chat: bearer token required")

	// ErrTokenExpired 访问令牌已过期
	ErrTokenExpired = errors.New("chat: bearer token expired")

	// ErrAuthentication 网关拒绝凭证（握手被策略关闭码拒绝）
	ErrAuthentication = errors.New("chat: authentication rejected")

	// ErrConnectionTimeout 连接建立超时
	ErrConnectionTimeout = errors.New("chat: connection timeout")

	// ErrTransport 传输层故障（握手或活跃连接上的套接字错误）
	ErrTransport = errors.New("chat: transport failure")
)

// 连接状态错误
var (
	// ErrAlreadyConnected 已经连接
	ErrAlreadyConnected = errors.New("chat: already connected")

	// ErrNotConnected 尚未连接
	ErrNotConnected = errors.New("chat: not connected")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("chat: client closed")

	// ErrConnectionClosed 连接已关闭
	ErrConnectionClosed = errors.New("chat: connection closed")

	// ErrMaxReconnectAttempts 重连次数已耗尽
	ErrMaxReconnectAttempts = errors.New("chat: max reconnect attempts exceeded")
)

// 消息错误
var (
	// ErrMessageParse 入站消息解析失败
	ErrMessageParse = errors.New("chat: message parse failed")

	// ErrValidation 出站消息校验失败
	ErrValidation = errors.New("chat: message validation failed")

	// ErrMissingType 消息缺少类型字段
	ErrMissingType = errors.New("chat: message type required")

	// ErrMessageTooBig 消息超过网关允许的最大长度
	ErrMessageTooBig = errors.New("chat: message exceeds size limit")

	// ErrSendQueueFull 连接发送通道已满
	ErrSendQueueFull = errors.New("chat: send queue full")
)

// 配置错误
var (
	// ErrInvalidConfig 客户端配置无效
	ErrInvalidConfig = errors.New("chat: invalid config")

	// ErrInvalidEndpoint 网关地址无效
	ErrInvalidEndpoint = errors.New("chat: invalid endpoint")
)

// ServerError 网关通过 error 帧下发的业务错误
type ServerError struct {
	// Code 错误码
	Code string `json:"code"`
	// Message 错误描述
	Message string `json:"message"`
	// Recoverable 是否可恢复（可恢复错误不影响连接状态）
	Recoverable bool `json:"recoverable"`
	// Help 排查提示，可选
	Help string `json:"help,omitempty"`
}

// Error 实现 error 接口
func (e *ServerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("chat: server error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("chat: server error: %s", e.Message)
}
