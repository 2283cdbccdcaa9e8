// Package bytebuff 封装 valyala/bytebufferpool，为消息编码提供可复用的字节缓冲。
// ByteBuffer 直接暴露底层 []byte，编码路径上无额外拷贝。
package bytebuff

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Pool 字节缓冲池，带取还计数
type Pool struct {
	src bytebufferpool.Pool

	gets atomic.Uint64
	puts atomic.Uint64
}

// Stats 池的取还计数
type Stats struct {
	Gets uint64
	Puts uint64
}

// Get 取一个空缓冲，用完必须 Put 归还
func (p *Pool) Get() *bytebufferpool.ByteBuffer {
	p.gets.Add(1)
	return p.src.Get()
}

// Put 归还缓冲，nil 安全
func (p *Pool) Put(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	p.puts.Add(1)
	p.src.Put(buf)
}

// Stats 返回累计取还次数
func (p *Pool) Stats() Stats {
	return Stats{
		Gets: p.gets.Load(),
		Puts: p.puts.Load(),
	}
}

var defaultPool Pool

// Get 从默认池取缓冲
func Get() *bytebufferpool.ByteBuffer {
	return defaultPool.Get()
}

// Put 归还缓冲到默认池
func Put(buf *bytebufferpool.ByteBuffer) {
	defaultPool.Put(buf)
}

// DefaultStats 返回默认池的取还计数
func DefaultStats() Stats {
	return defaultPool.Stats()
}
