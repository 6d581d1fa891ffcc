package flow

import (
	"math"
	"time"

	"orderflow-viz-go/book"
)

// Cluster holds traded volume at one price, split by aggressor.
type Cluster struct {
	BidVol float64
	AskVol float64
}

// Bar 一根按固定时间桶聚合的足迹K线。
type Bar struct {
	BucketStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Clusters    map[float64]Cluster // 按 tick 取整的价格 -> 量
}

// Footprint 将成交流聚合为足迹K线序列，FIFO 有界。
type Footprint struct {
	bucketDur time.Duration
	tickSize  float64
	capacity  int
	bars      []*Bar
	index     map[int64]*Bar // bucket key -> bar
}

// NewFootprint 创建聚合器。
func NewFootprint(bucketDur time.Duration, tickSize float64, capacity int) *Footprint {
	if bucketDur <= 0 {
		bucketDur = 5 * time.Second
	}
	if capacity <= 0 {
		capacity = 60
	}
	if tickSize <= 0 {
		tickSize = 0.01
	}
	return &Footprint{
		bucketDur: bucketDur,
		tickSize:  tickSize,
		capacity:  capacity,
		index:     make(map[int64]*Bar),
	}
}

// OnTrade 将一笔成交并入所属时间桶；桶不存在时以该价惰性开桶。
func (f *Footprint) OnTrade(t book.Trade) {
	key := t.Ts.UnixMilli() / f.bucketDur.Milliseconds()
	bar, ok := f.index[key]
	if !ok {
		bar = &Bar{
			BucketStart: time.UnixMilli(key * f.bucketDur.Milliseconds()),
			Open:        t.Price,
			High:        t.Price,
			Low:         t.Price,
			Close:       t.Price,
			Clusters:    make(map[float64]Cluster),
		}
		f.index[key] = bar
		f.bars = append(f.bars, bar)
		if len(f.bars) > f.capacity {
			evicted := f.bars[0]
			f.bars = f.bars[1:]
			delete(f.index, evicted.BucketStart.UnixMilli()/f.bucketDur.Milliseconds())
		}
	}

	if t.Price > bar.High {
		bar.High = t.Price
	}
	if t.Price < bar.Low {
		bar.Low = t.Price
	}
	bar.Close = t.Price

	p := math.Round(t.Price/f.tickSize) * f.tickSize
	c := bar.Clusters[p]
	if t.Side == book.SideBid {
		c.BidVol += t.Qty
	} else {
		c.AskVol += t.Qty
	}
	bar.Clusters[p] = c
}

// Bars returns retained bars ordered by non-decreasing bucket start.
func (f *Footprint) Bars() []*Bar { return f.bars }

// BucketDur 返回时间桶长度。
func (f *Footprint) BucketDur() time.Duration { return f.bucketDur }
