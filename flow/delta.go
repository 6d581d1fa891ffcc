package flow

import "orderflow-viz-go/book"

// Tracker maintains cumulative and per-tick order-flow delta. A tick's
// delta is the signed sum of that tick's trade quantities: buy-aggressor
// adds, sell-aggressor subtracts.
type Tracker struct {
	cum  float64
	tick float64
}

// BeginTick 开始新的 tick，清零本 tick 的增量。
func (t *Tracker) BeginTick() {
	t.tick = 0
}

// OnTrade 按主动方向累加本 tick 的带符号量。
func (t *Tracker) OnTrade(tr book.Trade) {
	if tr.Side == book.SideBid {
		t.tick += tr.Qty
	} else {
		t.tick -= tr.Qty
	}
}

// EndTick 结算本 tick：累计值吸收 tick 增量并返回两者。
func (t *Tracker) EndTick() (tickDelta, cumDelta float64) {
	t.cum += t.tick
	return t.tick, t.cum
}

// CumDelta 返回会话累计 delta。
func (t *Tracker) CumDelta() float64 { return t.cum }
