package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	promlib "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/xchat/pkg/chat"
	"github.com/lk2023060901/xchat/pkg/logger"
	"github.com/lk2023060901/xchat/pkg/security"
)

// actor 单个探针客户端，以固定速率发送消息并统计回声延迟
type actor struct {
	id      string
	runner  *Runner
	log     logger.Logger
	client  *chat.Client
	limiter *rate.Limiter

	seq     int64
	pending sync.Map // client_msg_id -> 发送时间
}

// newActor 创建一个探针客户端
func (r *Runner) newActor(index int) (*actor, error) {
	actorID, err := r.gen.NextID()
	if err != nil {
		return nil, err
	}

	a := &actor{
		id:     fmt.Sprintf("probe-%d", actorID),
		runner: r,
	}
	a.log = r.log.Named("actor").WithFields("actor", a.id)

	// 每个客户端持有独立的配置副本
	cfg := *r.clientCfg
	if r.jwtMgr != nil {
		token, err := mintToken(r.jwtMgr, r.cfg.BaseUID+uint64(index))
		if err != nil {
			return nil, err
		}
		cfg.Token = token
	}

	handler := chat.NewFuncHandler().
		OnMessageFunc(a.onMessage).
		OnDisconnectFunc(func(conn *chat.Connection, err error) {
			if err != nil {
				a.log.Warn("连接断开", "error", err)
			}
		}).
		OnErrorFunc(func(conn *chat.Connection, err error) {
			a.log.Warn("客户端错误", "error", err)
		})

	opts := []chat.ClientOption{
		chat.WithLogger(a.log),
		chat.WithHandler(handler),
		chat.WithMiddleware(chat.Recovery(a.log)),
	}
	if r.prom != nil {
		registerer := promlib.WrapRegistererWith(promlib.Labels{"actor": a.id}, r.prom.Registry())
		opts = append(opts, chat.WithMetricsRegisterer(registerer))
	}

	client, err := chat.NewClient(&cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.client = client

	if r.cfg.SendRate > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(r.cfg.SendRate), r.cfg.SendBurst)
	} else {
		a.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return a, nil
}

// run 驱动客户端直到上下文取消
// 单个客户端的失败不会中断整个探针
func (a *actor) run(ctx context.Context) error {
	defer a.client.Close()

	if err := a.client.Connect(ctx); err != nil {
		a.log.Error("连接失败", "error", err)
		a.runner.captureError(err)
		return nil
	}

	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil
		}
		a.sendOne()

		if a.client.State() == chat.StateError {
			err := a.client.LastError()
			a.log.Error("客户端进入终态错误，停止发送", "error", err)
			a.runner.captureError(err)
			return nil
		}
	}
}

// sendOne 发送一条探针消息
func (a *actor) sendOne() {
	a.seq++
	if a.seq%512 == 0 {
		a.prunePending(time.Now().Add(-time.Minute))
	}
	content := a.buildContent(a.seq)

	if a.runner.cfg.Optimistic {
		msgID, err := a.client.SendOptimisticMessage(a.runner.cfg.MessageType, content)
		if err != nil {
			a.runner.recordSend("error")
			a.log.Debug("发送失败", "seq", a.seq, "error", err)
			return
		}
		a.pending.Store(msgID, time.Now())
		a.runner.recordSend("ok")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"content": content,
		"seq":     a.seq,
		"actor":   a.id,
	})
	if err != nil {
		a.runner.recordSend("error")
		return
	}

	direct, err := a.client.SendMessage(&chat.Envelope{
		Type:    a.runner.cfg.MessageType,
		Payload: payload,
	})
	switch {
	case err != nil:
		a.runner.recordSend("error")
		a.log.Debug("发送失败", "seq", a.seq, "error", err)
	case direct:
		a.runner.recordSend("ok")
	default:
		a.runner.recordSend("queued")
	}
}

// onMessage 处理入站业务帧，匹配乐观消息的回声以统计延迟
func (a *actor) onMessage(conn *chat.Connection, frame *chat.InboundFrame) error {
	if len(frame.Envelope.Payload) == 0 {
		return nil
	}

	var echo struct {
		ClientMsgID string `json:"client_msg_id"`
	}
	if err := json.Unmarshal(frame.Envelope.Payload, &echo); err != nil || echo.ClientMsgID == "" {
		return nil
	}

	if sentAt, ok := a.pending.LoadAndDelete(echo.ClientMsgID); ok {
		a.runner.recordEcho(time.Since(sentAt.(time.Time)))
	}
	return nil
}

// prunePending 丢弃超时未被回声的消息记录
func (a *actor) prunePending(before time.Time) {
	a.pending.Range(func(key, value any) bool {
		if value.(time.Time).Before(before) {
			a.pending.Delete(key)
		}
		return true
	})
}

// buildContent 构造指定大小的消息内容
func (a *actor) buildContent(seq int64) string {
	head := fmt.Sprintf("%s#%d ", a.id, seq)
	if pad := a.runner.cfg.PayloadSize - len(head); pad > 0 {
		return head + strings.Repeat("x", pad)
	}
	return head
}

// mintToken 为探针客户端铸造测试令牌
func mintToken(mgr *security.JWTManager, uid uint64) (string, error) {
	claims := &security.Claims{
		Payload: map[string]any{
			"uid": fmt.Sprintf("%d", uid),
		},
	}
	return mgr.GenerateToken(claims)
}
