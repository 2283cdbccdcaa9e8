package idgen

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/sonyflake"
)

// flakeEpoch 是 ID 时间戳的起点，所有实例必须一致，否则会产生重复 ID。
var flakeEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type flakeGenerator struct {
	src *sonyflake.Sonyflake
}

// NewSonyflake 创建 Sonyflake 生成器，machineID 取值 0-65535。
// 同一套部署内 machineID 不可重复。
func NewSonyflake(machineID uint16) (Generator, error) {
	src := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: flakeEpoch,
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if src == nil {
		return nil, errors.Newf("idgen: sonyflake init failed, machine id %d", machineID)
	}
	return &flakeGenerator{src: src}, nil
}

func (g *flakeGenerator) NextID() (int64, error) {
	id, err := g.src.NextID()
	if err != nil {
		return 0, errors.Wrap(err, "idgen: next id")
	}
	return int64(id), nil
}
