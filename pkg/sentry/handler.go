package sentry

import "github.com/getsentry/sentry-go"

// ContextEnricher 在上报前向 scope 写入额外上下文
type ContextEnricher func(scope *sentry.Scope)

// ErrorHandler 带上下文增强的上报入口。每次上报在临时 scope 内
// 执行增强和捕获，增强数据不会残留到 Hub 上。
type ErrorHandler struct {
	client   *Client
	enricher ContextEnricher
}

// ErrorHandlerOption 处理器选项
type ErrorHandlerOption func(*ErrorHandler)

// WithContextEnricher 设置上下文增强函数
func WithContextEnricher(enricher ContextEnricher) ErrorHandlerOption {
	return func(h *ErrorHandler) {
		h.enricher = enricher
	}
}

// NewErrorHandler 创建错误处理器
func (c *Client) NewErrorHandler(opts ...ErrorHandlerOption) *ErrorHandler {
	h := &ErrorHandler{client: c}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CaptureError 上报错误，附带增强后的上下文
func (h *ErrorHandler) CaptureError(err error) *sentry.EventID {
	if h.enricher == nil {
		return h.client.CaptureException(err)
	}

	var id *sentry.EventID
	h.client.hub.WithScope(func(scope *sentry.Scope) {
		h.enricher(scope)
		id = h.client.CaptureException(err)
	})
	return id
}

// RecoverPanic 用于 defer，上报 panic 后重新抛出
func (h *ErrorHandler) RecoverPanic() {
	if r := recover(); r != nil {
		if h.enricher == nil {
			h.client.RecoverWithContext(r)
		} else {
			h.client.hub.WithScope(func(scope *sentry.Scope) {
				h.enricher(scope)
				h.client.RecoverWithContext(r)
			})
		}
		panic(r)
	}
}
