// pkg/chat/envelope.go
package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/xchat/pkg/pool/bytebuff"
)

// Envelope 聊天消息信封，网关协议的最小单元
type Envelope struct {
	// Type 消息类型，必填
	Type string `json:"type"`
	// Payload 消息负载，必须是 JSON 对象
	Payload json.RawMessage `json:"payload,omitempty"`
	// Timestamp 消息时间戳（Unix 毫秒），为 0 时在校验阶段填充
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Marshal 序列化消息，序列化过程借用字节缓冲池做临时缓冲
func (e *Envelope) Marshal() ([]byte, error) {
	buf := bytebuff.Get()
	defer bytebuff.Put(buf)

	if err := json.NewEncoder(buf).Encode(e); err != nil {
		return nil, errors.Wrap(err, "encode envelope")
	}

	// json.Encoder 会追加换行符
	b := buf.B
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}

	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ValidateOutbound 校验出站消息，返回规范化副本及其编码结果
// 时间戳缺省时填充为 now，编码后超过 maxSize 的消息判定为超限
func ValidateOutbound(env *Envelope, maxSize int64, now time.Time) (*Envelope, []byte, error) {
	if env == nil {
		return nil, nil, fmt.Errorf("%w: nil message", ErrValidation)
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, nil, ErrMissingType
	}
	if len(env.Payload) > 0 && !isJSONObject(env.Payload) {
		return nil, nil, fmt.Errorf("%w: payload must be a JSON object", ErrValidation)
	}

	// 规范化副本，入队后的消息不再变化
	canonical := *env
	if canonical.Timestamp == 0 {
		canonical.Timestamp = now.UnixMilli()
	}

	data, err := canonical.Marshal()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooBig, len(data), maxSize)
	}

	return &canonical, data, nil
}

// isJSONObject 判断数据是否为合法的 JSON 对象
func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(data)
}
