package runner

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	sentrygo "github.com/getsentry/sentry-go"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/xchat/pkg/chat"
	"github.com/lk2023060901/xchat/pkg/idgen"
	"github.com/lk2023060901/xchat/pkg/logger"
	"github.com/lk2023060901/xchat/pkg/metrics/sliding"
	"github.com/lk2023060901/xchat/pkg/metrics/system"
	"github.com/lk2023060901/xchat/pkg/prometheus"
	"github.com/lk2023060901/xchat/pkg/scheduler"
	"github.com/lk2023060901/xchat/pkg/security"
	"github.com/lk2023060901/xchat/pkg/sentry"
)

// Config 探针运行配置
type Config struct {
	// Clients 并发客户端数量
	Clients int `mapstructure:"clients" validate:"min=1"`
	// SendRate 每个客户端每秒发送的消息数，为 0 时不限速
	SendRate float64 `mapstructure:"send_rate"`
	// SendBurst 限速器突发容量
	SendBurst int `mapstructure:"send_burst"`
	// MessageType 出站消息类型
	MessageType string `mapstructure:"message_type"`
	// PayloadSize 消息内容的目标字节数
	PayloadSize int `mapstructure:"payload_size"`
	// Optimistic 是否使用乐观消息（携带消息关联标识，可用于回声延迟统计）
	Optimistic bool `mapstructure:"optimistic"`
	// Duration 压测时长，为 0 时持续运行直到收到停止信号
	Duration time.Duration `mapstructure:"duration"`
	// RampDelay 相邻客户端启动的间隔，避免惊群
	RampDelay time.Duration `mapstructure:"ramp_delay"`
	// ReportSpec 统计上报的 cron 表达式（秒级精度）
	ReportSpec string `mapstructure:"report_spec"`
	// JWTSecret 为每个客户端铸造测试令牌的密钥，为空时使用客户端配置中的静态令牌
	JWTSecret string `mapstructure:"jwt_secret"`
	// BaseUID 铸造令牌时的起始 UID
	BaseUID uint64 `mapstructure:"base_uid"`
	// MachineID Sonyflake 机器标识
	MachineID uint16 `mapstructure:"machine_id"`
}

// DefaultConfig 默认探针配置
func DefaultConfig() *Config {
	return &Config{
		Clients:     1,
		SendRate:    1,
		SendBurst:   1,
		MessageType: "probe_echo",
		PayloadSize: 128,
		Optimistic:  true,
		RampDelay:   50 * time.Millisecond,
		ReportSpec:  "*/30 * * * * *",
		BaseUID:     10001,
	}
}

// Validate 验证配置并填充默认值
func (c *Config) Validate() error {
	if c.Clients <= 0 {
		c.Clients = 1
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 1
	}
	if c.MessageType == "" {
		c.MessageType = "probe_echo"
	}
	if c.PayloadSize <= 0 {
		c.PayloadSize = 128
	}
	if c.RampDelay < 0 {
		c.RampDelay = 0
	}
	if c.ReportSpec == "" {
		c.ReportSpec = "*/30 * * * * *"
	}
	if c.BaseUID == 0 {
		c.BaseUID = 10001
	}
	return nil
}

// Runner 聊天网关探针，驱动一组并发客户端持续收发消息
type Runner struct {
	cfg       *Config
	clientCfg *chat.ClientConfig
	log       logger.Logger

	prom     *prometheus.Client
	sentry   *sentry.Client
	reporter *sentry.ErrorHandler
	sched    *scheduler.Scheduler
	window   *sliding.Window
	sys      *system.Collector
	gen      idgen.Generator
	jwtMgr   *security.JWTManager

	sendTotal   *prometheus.CounterVec
	echoLatency *prometheus.HistogramVec

	actors []*actor
	cancel context.CancelFunc
	group  *errgroup.Group

	started atomic.Bool
	stopped atomic.Bool
}

// Option 探针选项
type Option func(*Runner)

// WithMetrics 设置指标客户端，启用 Prometheus 上报
func WithMetrics(client *prometheus.Client) Option {
	return func(r *Runner) { r.prom = client }
}

// WithSentry 设置 Sentry 客户端，终态错误会被上报
func WithSentry(client *sentry.Client) Option {
	return func(r *Runner) { r.sentry = client }
}

// New 创建探针
func New(clientCfg *chat.ClientConfig, cfg *Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}

	r := &Runner{
		cfg:       cfg,
		clientCfg: clientCfg,
		log:       log.Named("probe"),
	}
	for _, opt := range opts {
		opt(r)
	}

	window, err := sliding.NewWindow(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create sliding window")
	}
	r.window = window

	sys, err := system.New()
	if err != nil {
		return nil, errors.Wrap(err, "create system collector")
	}
	r.sys = sys

	gen, err := idgen.NewSonyflake(cfg.MachineID)
	if err != nil {
		return nil, errors.Wrap(err, "create id generator")
	}
	r.gen = gen

	sched, err := scheduler.New(&scheduler.Config{
		WithSeconds:        true,
		SkipIfStillRunning: true,
	}, scheduler.WithLogger(r.log.Named("scheduler")))
	if err != nil {
		return nil, errors.Wrap(err, "create scheduler")
	}
	r.sched = sched

	if cfg.JWTSecret != "" {
		jwtMgr, err := security.NewJWTManager(&security.JWTConfig{
			SecretKey: cfg.JWTSecret,
			Algorithm: "HS256",
			ExpiresIn: 24 * time.Hour,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create jwt manager")
		}
		r.jwtMgr = jwtMgr
	}

	if r.prom != nil {
		r.sendTotal = r.prom.MustNewCounter("send_attempts_total",
			"Total send attempts by result", []string{"result"})
		r.echoLatency = r.prom.MustNewHistogram("echo_latency_seconds",
			"Round trip latency of echoed probe messages", nil,
			[]float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5})
	}

	if r.sentry != nil {
		r.reporter = r.sentry.NewErrorHandler(sentry.WithContextEnricher(func(scope *sentrygo.Scope) {
			scope.SetTag("component", "probe")
			scope.SetTag("clients", strconv.Itoa(cfg.Clients))
			scope.SetTag("optimistic", strconv.FormatBool(cfg.Optimistic))
		}))
	}

	return r, nil
}

// Start 启动探针，非阻塞
func (r *Runner) Start() error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("runner already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	r.group = group

	r.actors = make([]*actor, 0, r.cfg.Clients)
	for i := 0; i < r.cfg.Clients; i++ {
		a, err := r.newActor(i)
		if err != nil {
			cancel()
			return errors.Wrapf(err, "create actor %d", i)
		}
		r.actors = append(r.actors, a)
	}

	if _, err := r.sched.AddFunc("stats-report", r.cfg.ReportSpec, func() error {
		r.report()
		return nil
	}); err != nil {
		cancel()
		return errors.Wrap(err, "register report job")
	}
	r.sched.Start()
	r.sys.Start(15 * time.Second)

	for i, a := range r.actors {
		a := a
		delay := time.Duration(i) * r.cfg.RampDelay
		group.Go(func() error {
			if delay > 0 {
				select {
				case <-gctx.Done():
					return nil
				case <-time.After(delay):
				}
			}
			return a.run(gctx)
		})
	}

	if r.cfg.Duration > 0 {
		group.Go(func() error {
			select {
			case <-gctx.Done():
			case <-time.After(r.cfg.Duration):
				r.log.Info("压测时长已到，开始收尾", "duration", r.cfg.Duration)
				cancel()
			}
			return nil
		})
	}

	r.log.Info("探针已启动",
		"clients", r.cfg.Clients,
		"send_rate", r.cfg.SendRate,
		"optimistic", r.cfg.Optimistic,
		"duration", r.cfg.Duration)
	return nil
}

// Stop 停止探针
func (r *Runner) Stop() error {
	return r.GracefulStop()
}

// GracefulStop 停止所有客户端并输出最终报告
func (r *Runner) GracefulStop() error {
	if !r.started.Load() {
		return nil
	}
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}

	r.cancel()
	err := r.group.Wait()

	r.sched.Release()
	r.sys.Stop()
	r.report()
	r.window.Stop()

	r.log.Info("探针已停止")
	return err
}

// report 输出一轮聚合统计
func (r *Runner) report() {
	var (
		connected int
		sent      uint64
		received  uint64
		errCount  uint64
		reconns   uint64
		queued    int
	)
	for _, a := range r.actors {
		if a.client.IsConnected() {
			connected++
		}
		stats := a.client.Stats()
		sent += stats.MessagesSent
		received += stats.MessagesReceived
		errCount += stats.ErrorsEncountered
		reconns += stats.Reconnections
		queued += a.client.QueueLen()
	}

	winStats := r.window.GetStats()
	sysStats := r.sys.GetStats()

	r.log.Info("探针统计",
		"connected", fmt.Sprintf("%d/%d", connected, len(r.actors)),
		"sent", sent,
		"received", received,
		"errors", errCount,
		"reconnections", reconns,
		"queued", queued,
		"echo_qps", fmt.Sprintf("%.2f", winStats.QPS),
		"echo_avg_ms", fmt.Sprintf("%.2f", winStats.AvgLatency*1000),
		"echo_max_ms", fmt.Sprintf("%.2f", winStats.MaxLatency*1000),
		"cpu_percent", fmt.Sprintf("%.1f", sysStats.CPUPercent),
		"mem_mb", sysStats.MemoryBytes/1024/1024,
		"goroutines", sysStats.Goroutines)
}

// recordSend 记录一次发送结果
func (r *Runner) recordSend(result string) {
	if r.sendTotal != nil {
		r.sendTotal.WithLabelValues(result).Inc()
	}
}

// recordEcho 记录一次回声延迟
func (r *Runner) recordEcho(latency time.Duration) {
	r.window.Record(latency.Seconds(), true)
	if r.echoLatency != nil {
		r.echoLatency.WithLabelValues().Observe(latency.Seconds())
	}
}

// captureError 上报终态错误
func (r *Runner) captureError(err error) {
	if r.reporter != nil && err != nil {
		r.reporter.CaptureError(err)
	}
}
