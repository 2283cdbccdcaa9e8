// pkg/chat/handler.go
package chat

// MessageHandler 业务消息处理器
// 保留类型帧由客户端内部处理，不会到达 OnMessage
type MessageHandler interface {
	// OnConnect 连接建立后调用
	OnConnect(conn *Connection) error
	// OnMessage 收到业务消息时调用
	OnMessage(conn *Connection, frame *InboundFrame) error
	// OnDisconnect 连接断开后调用
	OnDisconnect(conn *Connection, err error)
	// OnError 处理过程中出现错误时调用
	OnError(conn *Connection, err error)
}

// BaseHandler 空实现，嵌入后按需覆盖
type BaseHandler struct{}

// OnConnect 默认实现
func (h *BaseHandler) OnConnect(conn *Connection) error {
	return nil
}

// OnMessage 默认实现
func (h *BaseHandler) OnMessage(conn *Connection, frame *InboundFrame) error {
	return nil
}

// OnDisconnect 默认实现
func (h *BaseHandler) OnDisconnect(conn *Connection, err error) {
}

// OnError 默认实现
func (h *BaseHandler) OnError(conn *Connection, err error) {
}

// HandlerFunc 消息处理函数
type HandlerFunc func(conn *Connection, frame *InboundFrame) error

// FuncHandler 以函数方式组装的处理器
type FuncHandler struct {
	onConnect    func(conn *Connection) error
	onMessage    HandlerFunc
	onDisconnect func(conn *Connection, err error)
	onError      func(conn *Connection, err error)
}

// NewFuncHandler 创建函数式处理器
func NewFuncHandler() *FuncHandler {
	return &FuncHandler{}
}

// OnConnectFunc 设置连接建立回调
func (h *FuncHandler) OnConnectFunc(fn func(conn *Connection) error) *FuncHandler {
	h.onConnect = fn
	return h
}

// OnMessageFunc 设置消息回调
func (h *FuncHandler) OnMessageFunc(fn HandlerFunc) *FuncHandler {
	h.onMessage = fn
	return h
}

// OnDisconnectFunc 设置断开回调
func (h *FuncHandler) OnDisconnectFunc(fn func(conn *Connection, err error)) *FuncHandler {
	h.onDisconnect = fn
	return h
}

// OnErrorFunc 设置错误回调
func (h *FuncHandler) OnErrorFunc(fn func(conn *Connection, err error)) *FuncHandler {
	h.onError = fn
	return h
}

// OnConnect 实现 MessageHandler 接口
func (h *FuncHandler) OnConnect(conn *Connection) error {
	if h.onConnect != nil {
		return h.onConnect(conn)
	}
	return nil
}

// OnMessage 实现 MessageHandler 接口
func (h *FuncHandler) OnMessage(conn *Connection, frame *InboundFrame) error {
	if h.onMessage != nil {
		return h.onMessage(conn, frame)
	}
	return nil
}

// OnDisconnect 实现 MessageHandler 接口
func (h *FuncHandler) OnDisconnect(conn *Connection, err error) {
	if h.onDisconnect != nil {
		h.onDisconnect(conn, err)
	}
}

// OnError 实现 MessageHandler 接口
func (h *FuncHandler) OnError(conn *Connection, err error) {
	if h.onError != nil {
		h.onError(conn, err)
	}
}
