// pkg/chat/inbound.go
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InboundKind 入站帧类别
type InboundKind int

const (
	// InboundOpaque 业务消息，透传给消息处理器
	InboundOpaque InboundKind = iota
	// InboundConnectionEstablished 连接建立确认帧
	InboundConnectionEstablished
	// InboundPong 心跳响应帧
	InboundPong
	// InboundServerError 网关错误帧
	InboundServerError
)

// String 返回帧类别的字符串表示
func (k InboundKind) String() string {
	switch k {
	case InboundOpaque:
		return "opaque"
	case InboundConnectionEstablished:
		return "connection_established"
	case InboundPong:
		return "pong"
	case InboundServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// InboundFrame 解码后的入站帧
// 保留类型在解码阶段一次性展开，业务代码不需要再次解析负载
type InboundFrame struct {
	// Kind 帧类别
	Kind InboundKind
	// Envelope 原始信封
	Envelope *Envelope
	// ConnectionID 网关分配的连接标识，仅连接确认帧携带
	ConnectionID string
	// ServerError 网关下发的错误，仅错误帧携带
	ServerError *ServerError
}

// DecodeInbound 解码入站帧
func DecodeInbound(data []byte) (*InboundFrame, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessageParse, err)
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMessageParse)
	}

	frame := &InboundFrame{
		Kind:     InboundOpaque,
		Envelope: &env,
	}

	switch env.Type {
	case TypeConnectionEstablished:
		frame.Kind = InboundConnectionEstablished
		if len(env.Payload) > 0 {
			var payload struct {
				ConnectionID string `json:"connection_id"`
			}
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				return nil, fmt.Errorf("%w: connection_established payload: %v", ErrMessageParse, err)
			}
			frame.ConnectionID = payload.ConnectionID
		}

	case TypeError:
		frame.Kind = InboundServerError
		serverErr, err := decodeServerError(env.Payload)
		if err != nil {
			return nil, err
		}
		frame.ServerError = serverErr

	case TypePong:
		frame.Kind = InboundPong
	}

	return frame, nil
}

// decodeServerError 解码错误帧负载
// 错误码可能是数字或字符串，描述字段兼容 error 和 message 两种写法
func decodeServerError(payload json.RawMessage) (*ServerError, error) {
	var aux struct {
		Code        any    `json:"code"`
		ErrorText   string `json:"error"`
		Message     string `json:"message"`
		Recoverable bool   `json:"recoverable"`
		Help        string `json:"help"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &aux); err != nil {
			return nil, fmt.Errorf("%w: error payload: %v", ErrMessageParse, err)
		}
	}

	serverErr := &ServerError{
		Message:     aux.Message,
		Recoverable: aux.Recoverable,
		Help:        aux.Help,
	}
	if serverErr.Message == "" {
		serverErr.Message = aux.ErrorText
	}
	if aux.Code != nil {
		serverErr.Code = fmt.Sprint(aux.Code)
	}

	return serverErr, nil
}
