package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lk2023060901/xchat/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrAppAlreadyRunning Run 只允许调用一次
var ErrAppAlreadyRunning = errors.New("application is already running")

// Application 框架级应用
type Application interface {
	Run() error
	Shutdown() error
	Logger(name string) logger.Logger
	AppLogger() logger.Logger
	SetAppLogger(l logger.Logger)
}

// Server 可启停的服务组件
type Server interface {
	Start() error
	Stop() error
}

// GracefulServer 支持优雅停止的服务组件
type GracefulServer interface {
	Server
	GracefulStop() error
}

// Closer 需要在退出时清理的资源
type Closer interface {
	Close() error
}

// BaseApp Application 的基础实现：托管一组 Server 与 Closer，
// 监听退出信号并按序收尾。
type BaseApp struct {
	opts     Options
	logger   logger.Logger
	registry *LoggerRegistry

	servers []Server
	closers []Closer

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex

	started atomic.Bool
	closed  atomic.Bool
}

// NewBaseApp 创建应用实例
func NewBaseApp(opts ...Option) *BaseApp {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &BaseApp{
		opts:     o,
		logger:   o.Logger.Named(o.Name),
		registry: NewLoggerRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}

	// 带日志配置时立即重建主日志对象，失败则沿用已有对象
	if o.LogConfig != nil {
		l, err := logger.New(o.LogConfig)
		if err != nil {
			a.logger.Warn("failed to build logger from config, keeping current one", "error", err)
		} else {
			a.logger = l.Named(o.Name)
		}
	}

	return a
}

// SetAppLogger 替换应用主日志对象
func (a *BaseApp) SetAppLogger(l logger.Logger) {
	a.mu.Lock()
	a.logger = l
	a.mu.Unlock()
}

// AppLogger 获取应用主日志对象
func (a *BaseApp) AppLogger() logger.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// Logger 获取具名 Logger
func (a *BaseApp) Logger(name string) logger.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.registry.Get(name)
}

// RegisterLogger 注册具名 Logger
func (a *BaseApp) RegisterLogger(name string, l logger.Logger) {
	a.mu.Lock()
	a.registry.Register(name, l)
	a.mu.Unlock()
}

// AppendServer 添加服务组件
func (a *BaseApp) AppendServer(srv ...Server) {
	a.mu.Lock()
	a.servers = append(a.servers, srv...)
	a.mu.Unlock()
}

// AppendCloser 添加清理组件
func (a *BaseApp) AppendCloser(closer ...Closer) {
	a.mu.Lock()
	a.closers = append(a.closers, closer...)
	a.mu.Unlock()
}

// Run 启动全部服务组件并阻塞，收到 SIGINT/SIGTERM 或
// 内部取消后执行 Shutdown。
func (a *BaseApp) Run() error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAppAlreadyRunning
	}

	if len(a.opts.NamedLoggers) > 0 {
		if err := a.registry.InitLoggers(a.opts.NamedLoggers); err != nil {
			a.logger.Error("failed to initialize named loggers from config", "error", err)
			return err
		}
	}

	a.printBanner()

	if err := a.startServers(); err != nil {
		return err
	}

	a.awaitExit()
	return a.Shutdown()
}

func (a *BaseApp) printBanner() {
	info := GetInfo()
	fmt.Println(info.String())

	a.logger.Info("application starting",
		"name", info.AppName,
		"version", info.Version,
		"commit", info.GitCommit,
		"go_version", info.GoVersion,
		"id", a.opts.ID,
	)
}

// startServers 顺序启动，任一失败则回滚已启动的部分
func (a *BaseApp) startServers() error {
	for i, srv := range a.servers {
		if err := srv.Start(); err != nil {
			a.logger.Error("failed to start server", "index", i, "error", err)
			for j := i - 1; j >= 0; j-- {
				if serr := a.servers[j].Stop(); serr != nil {
					a.logger.Error("rollback stop failed", "index", j, "error", serr)
				}
			}
			return err
		}
	}
	return nil
}

// awaitExit 阻塞到退出信号或内部取消
func (a *BaseApp) awaitExit() {
	ctx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if a.ctx.Err() != nil {
		a.logger.Info("context cancelled, shutting down")
		return
	}
	a.logger.Info("exit signal received, shutting down")
}

// Shutdown 停止服务组件并清理资源，可重复调用
func (a *BaseApp) Shutdown() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancel()
	a.logger.Info("application shutting down")

	a.stopServers()

	// Closer 按注册逆序关闭
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close component", "error", err)
		}
	}

	a.registry.SyncAll()
	_ = a.logger.Sync()

	a.logger.Info("application exited")
	return nil
}

// stopServers 并发停止服务组件，超时后不再等待
func (a *BaseApp) stopServers() {
	var g errgroup.Group
	for _, srv := range a.servers {
		s := srv
		g.Go(func() error {
			var err error
			if gs, ok := s.(GracefulServer); ok {
				err = gs.GracefulStop()
			} else {
				err = s.Stop()
			}
			if err != nil {
				a.logger.Error("failed to stop server", "error", err)
			}
			return err
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("all servers stopped")
	case <-time.After(a.opts.StopTimeout):
		a.logger.Warn("shutdown timeout, forcing exit")
	}
}
