// Package idgen 提供进程内唯一 ID 生成能力。
// 探针用它为每个模拟客户端分配标识，避免多实例并发时撞号。
package idgen

// Generator 唯一 ID 生成器
type Generator interface {
	// NextID 返回下一个唯一 ID，同一实例内严格递增
	NextID() (int64, error)
}
