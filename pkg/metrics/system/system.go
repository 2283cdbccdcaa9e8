// Package system 采集进程级资源占用，供探针周期性上报。
package system

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats 一次采集的快照
type Stats struct {
	// CPUPercent 进程 CPU 使用率，多核时可超过 100
	CPUPercent float64 `json:"cpu_percent"`
	// MemoryPercent 进程常驻内存占系统内存的比例
	MemoryPercent float64 `json:"memory_percent"`
	// MemoryBytes 进程常驻内存字节数
	MemoryBytes uint64 `json:"memory_bytes"`
	// Goroutines 当前 goroutine 数
	Goroutines int `json:"goroutines"`
	// UpdatedAt 采集时间
	UpdatedAt time.Time `json:"updated_at"`
}

// Collector 周期采集当前进程的资源占用
type Collector struct {
	proc *process.Process

	mu   sync.RWMutex
	last Stats

	stop    chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

// New 创建采集器，绑定当前进程
func New() (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	return &Collector{
		proc: proc,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// Start 启动后台采集，启动时先同步采集一次，重复调用无效果
func (c *Collector) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.refresh()
	go c.loop(interval)
}

func (c *Collector) loop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.refresh()
		case <-c.stop:
			return
		}
	}
}

// Stop 停止采集并等待后台协程退出，未启动时直接返回
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
}

// GetStats 返回最近一次采集的快照
func (c *Collector) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Collector) refresh() {
	snap := Stats{
		Goroutines: runtime.NumGoroutine(),
		UpdatedAt:  time.Now(),
	}

	if pct, err := c.proc.CPUPercent(); err == nil {
		snap.CPUPercent = pct
	}
	if info, err := c.proc.MemoryInfo(); err == nil {
		snap.MemoryBytes = info.RSS
		if vm, err := mem.VirtualMemory(); err == nil && vm.Total > 0 {
			snap.MemoryPercent = float64(info.RSS) / float64(vm.Total) * 100
		}
	}

	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()
}
