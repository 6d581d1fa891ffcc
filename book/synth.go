package book

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// SynthConfig 合成成交参数
type SynthConfig struct {
	TickSize        float64 // 触碰判定范围（一个 tick 内）
	ShrinkFactor    float64 // 被触碰档位的量收缩系数 (0,1)
	MinQty          float64 // 随机成交量下限
	MaxQty          float64 // 随机成交量上限
	MarkerThreshold float64 // 超过该量时生成标记
}

// Synthesizer derives synthetic prints from ladder touches. This is the
// only path that creates trades: no level touch, no print.
type Synthesizer struct {
	cfg SynthConfig
	rng *rand.Rand
}

// NewSynthesizer 创建合成器；rng 必须注入。
func NewSynthesizer(cfg SynthConfig, rng *rand.Rand) (*Synthesizer, error) {
	if cfg.TickSize <= 0 {
		return nil, errors.New("tickSize must be > 0")
	}
	if cfg.ShrinkFactor <= 0 || cfg.ShrinkFactor >= 1 {
		return nil, errors.New("shrinkFactor must be in (0,1)")
	}
	if cfg.MinQty <= 0 || cfg.MaxQty < cfg.MinQty {
		return nil, errors.New("qty bounds invalid")
	}
	if rng == nil {
		return nil, errors.New("rng is required")
	}
	return &Synthesizer{cfg: cfg, rng: rng}, nil
}

// Touch 处理一次价格触碰：距离当前价一个 tick 内的档位视为被打，
// 收缩其挂单量并生成成交；返回本 tick 产生的全部成交。
func (s *Synthesizer) Touch(lad *Ladder, tape *Tape, price float64, ts time.Time) []Trade {
	var out []Trade
	levels := lad.Levels()
	for i := range levels {
		lvl := &levels[i]
		if math.Abs(lvl.Price-price) > s.cfg.TickSize {
			continue
		}
		lvl.Volume *= s.cfg.ShrinkFactor
		if lvl.Volume < lad.Floor() {
			lvl.Volume = lad.Floor()
		}

		qty := s.cfg.MinQty + s.rng.Float64()*(s.cfg.MaxQty-s.cfg.MinQty)
		side := SideAsk // level above price: sell aggressor
		if lvl.Price <= price {
			side = SideBid // at or below: buy aggressor
		}
		tr := Trade{Ts: ts, Price: lvl.Price, Qty: qty, Side: side, Active: true}
		tape.Append(tr)
		out = append(out, tr)

		if s.cfg.MarkerThreshold > 0 && qty > s.cfg.MarkerThreshold {
			tape.AppendMarker(Marker{
				Ts:    ts,
				Price: lvl.Price,
				Kind:  MarkerKind(s.rng.Intn(3)),
				Side:  side,
			})
		}
	}
	return out
}
