// pkg/chat/types.go
package chat

// ConnectionState 连接生命周期状态
type ConnectionState int32

const (
	// StateDisconnected 未连接（初始状态，或已断开且不再重试）
	StateDisconnected ConnectionState = iota
	// StateConnecting 正在建立连接（网关发现、票据获取、握手）
	StateConnecting
	// StateConnected 已连接，可以收发消息
	StateConnected
	// StateDisconnecting 正在主动断开连接
	StateDisconnecting
	// StateReconnecting 连接丢失，正在按退避策略重连
	StateReconnecting
	// StateError 终止状态（重连次数耗尽或不可恢复错误）
	StateError
)

// String 返回状态的字符串表示
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	case StateReconnecting:
		return "reconnecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// 保留的消息类型，由客户端内部处理，不会进入业务消息处理器
const (
	// TypePing 心跳请求
	TypePing = "ping"
	// TypePong 心跳响应
	TypePong = "pong"
	// TypeError 网关下发的错误帧
	TypeError = "error"
	// TypeConnectionEstablished 连接建立确认帧
	TypeConnectionEstablished = "connection_established"
)

// IsReservedType 判断消息类型是否为保留类型
func IsReservedType(messageType string) bool {
	switch messageType {
	case TypePing, TypePong, TypeError, TypeConnectionEstablished:
		return true
	default:
		return false
	}
}
