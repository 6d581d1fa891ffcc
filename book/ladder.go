package book

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// LadderConfig 梯子参数（均为展示调优值，可热更新）
type LadderConfig struct {
	TickSize          float64 // 价格最小变动
	HalfWindow        int     // 中心价上下各多少档
	RecenterThreshold float64 // 中心参考价偏离超过该值时整体重建
	VolumeFloor       float64 // 档位量的下限，避免空档
	BaseVolume        float64 // 播种时的随机基础量
	PerturbMagnitude  float64 // 每 tick 的随机扰动幅度
	WallStep          int     // 每隔多少档播种一个流动性墙
	WallBoost         float64 // 流动性墙相对基础量的放大倍数
}

// Ladder 维护以最新成交价为中心的合成价位梯子。
type Ladder struct {
	cfg    LadderConfig
	rng    *rand.Rand
	center float64 // 上次重建时的中心参考价
	levels []PriceLevel
}

// NewLadder 创建梯子；rng 必须注入以便测试复现。
func NewLadder(cfg LadderConfig, rng *rand.Rand) (*Ladder, error) {
	if cfg.TickSize <= 0 {
		return nil, errors.New("tickSize must be > 0")
	}
	if cfg.HalfWindow <= 0 {
		return nil, errors.New("halfWindow must be > 0")
	}
	if cfg.RecenterThreshold <= 0 {
		return nil, fmt.Errorf("recenterThreshold must be > 0, got %f", cfg.RecenterThreshold)
	}
	if cfg.VolumeFloor < 0 {
		return nil, errors.New("volumeFloor must be >= 0")
	}
	if rng == nil {
		return nil, errors.New("rng is required")
	}
	if cfg.WallStep <= 0 {
		cfg.WallStep = 10
	}
	if cfg.WallBoost <= 0 {
		cfg.WallBoost = 3
	}
	return &Ladder{cfg: cfg, rng: rng}, nil
}

// Refresh 在每个 tick 调用：必要时重建，随后扰动并重新分类方向。
func (l *Ladder) Refresh(price float64) {
	if len(l.levels) == 0 || math.Abs(l.center-price) > l.cfg.RecenterThreshold {
		l.rebuild(price)
	}
	for i := range l.levels {
		lvl := &l.levels[i]
		lvl.Volume += (l.rng.Float64() - 0.5) * 2 * l.cfg.PerturbMagnitude
		if lvl.Volume < l.cfg.VolumeFloor {
			lvl.Volume = l.cfg.VolumeFloor
		}
		if lvl.Price < price {
			lvl.Side = SideBid
		} else {
			lvl.Side = SideAsk
		}
	}
}

// rebuild 以 price 为中心重新播种全部档位。
func (l *Ladder) rebuild(price float64) {
	l.center = l.Quantize(price)
	n := l.cfg.HalfWindow*2 + 1
	l.levels = make([]PriceLevel, 0, n)
	for i := -l.cfg.HalfWindow; i <= l.cfg.HalfWindow; i++ {
		vol := l.cfg.VolumeFloor + l.rng.Float64()*l.cfg.BaseVolume
		// 整数档位附近播种更大的挂单墙，模拟常见的整数位流动性
		if i != 0 && i%l.cfg.WallStep == 0 {
			vol += l.rng.Float64() * l.cfg.BaseVolume * l.cfg.WallBoost
		}
		p := l.center + float64(i)*l.cfg.TickSize
		side := SideAsk
		if p < price {
			side = SideBid
		}
		l.levels = append(l.levels, PriceLevel{Price: p, Volume: vol, Side: side})
	}
}

// Quantize rounds a price to the ladder's tick grid.
func (l *Ladder) Quantize(price float64) float64 {
	return math.Round(price/l.cfg.TickSize) * l.cfg.TickSize
}

// Levels 返回当前档位切片；调用方不得跨 tick 持有。
func (l *Ladder) Levels() []PriceLevel {
	return l.levels
}

// Visible 返回量不低于 minVolume 的档位拷贝。
func (l *Ladder) Visible(minVolume float64) []PriceLevel {
	out := make([]PriceLevel, 0, len(l.levels))
	for _, lvl := range l.levels {
		if lvl.Volume >= minVolume {
			out = append(out, lvl)
		}
	}
	return out
}

// Center 返回上次重建时的中心参考价。
func (l *Ladder) Center() float64 { return l.center }

// TickSize 返回价格步长。
func (l *Ladder) TickSize() float64 { return l.cfg.TickSize }

// Floor 返回档位量下限。
func (l *Ladder) Floor() float64 { return l.cfg.VolumeFloor }
