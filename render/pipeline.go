package render

import (
	"fmt"
	"math"
	"sort"
	"time"

	"orderflow-viz-go/book"
	"orderflow-viz-go/flow"
	"orderflow-viz-go/history"
)

var (
	buyColor    = Color{R: 16, G: 200, B: 120}
	sellColor   = Color{R: 240, G: 82, B: 82}
	gridColor   = Color{R: 110, G: 120, B: 140, A: 0.25}
	labelColor  = Color{R: 170, G: 180, B: 200, A: 0.8}
	wickColor   = Color{R: 210, G: 210, B: 220, A: 0.6}
	cvdColor    = Color{R: 80, G: 160, B: 255, A: 0.95}
	zeroColor   = Color{R: 130, G: 130, B: 140, A: 0.5}
	markerColor = Color{R: 255, G: 215, B: 0, A: 0.9}
)

// Layers 各绘制层的可见开关
type Layers struct {
	Heatmap   bool
	Bubbles   bool
	Footprint bool
	Grid      bool
}

// AllLayers 返回全部开启的图层。
func AllLayers() Layers {
	return Layers{Heatmap: true, Bubbles: true, Footprint: true, Grid: true}
}

// PipelineConfig 渲染管线参数
type PipelineConfig struct {
	RefVolume       float64       // 热力归一的参考量
	Contrast        float64       // 热力对比度
	MinSamples      int           // 冷启动：低于该样本数不绘制历史面
	BubbleScale     float64       // 气泡半径 = sqrt(qty)*scale
	MaxBubbleRadius float64       // 气泡半径上限
	ZoomLabelMin    float64       // 缩放达到该值才绘制足迹量标签
	GridTicks       int           // 每隔多少 tick 画一条价格网格线
	TickSize        float64       // 价格步长（行高/聚类取整用）
	FrameInterval   time.Duration // 帧间隔（热力列宽用）
}

// Pipeline runs the four drawing passes each frame: heatmap, overlay,
// cumulative-delta panel, delta panel. Passes are independent: a missing
// surface or insufficient history skips only that pass, and the frame
// loop retries it next time around.
type Pipeline struct {
	cfg       PipelineConfig
	mapper    *Mapper
	main      Surface
	cvd       Surface
	delta     Surface
	layers    Layers
	passTimer func(pass string, seconds float64)
}

// NewPipeline 创建渲染管线；任一 surface 可为 nil（对应 pass 跳过）。
func NewPipeline(cfg PipelineConfig, mapper *Mapper, main, cvd, delta Surface) *Pipeline {
	if cfg.Contrast <= 0 {
		cfg.Contrast = 1
	}
	if cfg.BubbleScale <= 0 {
		cfg.BubbleScale = 2
	}
	if cfg.MaxBubbleRadius <= 0 {
		cfg.MaxBubbleRadius = 14
	}
	if cfg.GridTicks <= 0 {
		cfg.GridTicks = 10
	}
	return &Pipeline{cfg: cfg, mapper: mapper, main: main, cvd: cvd, delta: delta, layers: AllLayers()}
}

// SetLayers 更新图层开关。
func (p *Pipeline) SetLayers(l Layers) { p.layers = l }

// Layers 返回当前图层开关。
func (p *Pipeline) Layers() Layers { return p.layers }

// SetContrast 更新热力对比度；非正值忽略。
func (p *Pipeline) SetContrast(c float64) {
	if c > 0 {
		p.cfg.Contrast = c
	}
}

// SetPassTimer 注册每个 pass 的耗时回调。
func (p *Pipeline) SetPassTimer(f func(pass string, seconds float64)) { p.passTimer = f }

// Render 绘制一帧的全部四个 pass。
func (p *Pipeline) Render(now time.Time, hist *history.Buffer, tape *book.Tape, fp *flow.Footprint) {
	p.timed("heatmap", func() { p.drawHeatmap(now, hist) })
	p.timed("overlay", func() { p.drawOverlay(now, tape, fp) })
	p.timed("cvd", func() { p.drawCVD(hist) })
	p.timed("delta", func() { p.drawDelta(hist) })
}

func (p *Pipeline) timed(pass string, draw func()) {
	if p.passTimer == nil {
		draw()
		return
	}
	start := time.Now()
	draw()
	p.passTimer(pass, time.Since(start).Seconds())
}

// drawHeatmap 从最新列向左回放历史快照。
func (p *Pipeline) drawHeatmap(now time.Time, hist *history.Buffer) {
	if p.main == nil || hist == nil {
		return
	}
	p.main.Clear()
	if !p.layers.Heatmap || hist.Len() < p.cfg.MinSamples {
		return
	}
	colW := p.mapper.ColWidth(p.cfg.FrameInterval)
	if colW < 1 {
		colW = 1
	}
	rowH := p.mapper.RowHeight(p.cfg.TickSize)
	if rowH < 1 {
		rowH = 1
	}
	hist.EachNewestFirst(func(s history.Sample) bool {
		x := p.mapper.AgeX(now.Sub(s.Ts)) - colW
		if x+colW < 0 {
			return false // past the lookback window
		}
		for _, lvl := range s.Levels {
			c := HeatColor(Intensity(lvl.Volume, p.cfg.RefVolume, p.cfg.Contrast))
			if c.A <= 0 {
				continue
			}
			p.main.FillRect(x, p.mapper.PriceY(lvl.Price)-rowH/2, colW, rowH, c)
		}
		return true
	})
}

// drawOverlay 绘制价格网格、成交气泡、足迹烛芯与标记。
func (p *Pipeline) drawOverlay(now time.Time, tape *book.Tape, fp *flow.Footprint) {
	if p.main == nil {
		return
	}
	w, _ := p.main.Size()

	if p.layers.Grid {
		step := float64(p.cfg.GridTicks) * p.cfg.TickSize
		if step > 0 {
			start := math.Ceil(p.mapper.Bottom()/step) * step
			for price := start; price <= p.mapper.Top(); price += step {
				y := p.mapper.PriceY(price)
				p.main.Line(0, y, float64(w), y, 1, gridColor)
				p.main.Text(fmt.Sprintf("%.2f", price), float64(w)-54, y-3, 10, labelColor)
			}
		}
	}

	if p.layers.Bubbles && tape != nil {
		for _, tr := range tape.Trades() {
			age := now.Sub(tr.Ts)
			if age < 0 || age > p.mapper.Lookback() {
				continue
			}
			c := sellColor
			if tr.Side == book.SideBid {
				c = buyColor
			}
			c.A = 0.25 + 0.45*(1-age.Seconds()/p.mapper.Lookback().Seconds())
			p.main.Circle(p.mapper.AgeX(age), p.mapper.PriceY(tr.Price), BubbleRadius(tr.Qty, p.cfg.BubbleScale, p.cfg.MaxBubbleRadius), c)
		}
		for _, mk := range tape.Markers() {
			age := now.Sub(mk.Ts)
			if age < 0 || age > p.mapper.Lookback() {
				continue
			}
			p.main.Text(mk.Kind.String()[:1], p.mapper.AgeX(age), p.mapper.PriceY(mk.Price)-8, 9, markerColor)
		}
	}

	if p.layers.Footprint && fp != nil {
		p.drawFootprint(now, fp)
	}
}

func (p *Pipeline) drawFootprint(now time.Time, fp *flow.Footprint) {
	half := fp.BucketDur() / 2
	for _, bar := range fp.Bars() {
		mid := bar.BucketStart.Add(half)
		age := now.Sub(mid)
		if age < 0 || age > p.mapper.Lookback() {
			continue
		}
		x := p.mapper.AgeX(age)
		p.main.Line(x, p.mapper.PriceY(bar.High), x, p.mapper.PriceY(bar.Low), 1, wickColor)

		if p.mapper.Zoom() < p.cfg.ZoomLabelMin {
			continue
		}
		prices := make([]float64, 0, len(bar.Clusters))
		for price := range bar.Clusters {
			prices = append(prices, price)
		}
		sort.Float64s(prices)
		for _, price := range prices {
			c := bar.Clusters[price]
			y := p.mapper.PriceY(price)
			p.main.FillRect(x-22, y-6, 44, 11, Color{R: 20, G: 24, B: 34, A: 0.7})
			p.main.Text(fmt.Sprintf("%.0f|%.0f", c.BidVol, c.AskVol), x-19, y+3, 9, labelColor)
		}
	}
}

// drawCVD 绘制累计 delta 折线，min-max 归一到面板高度。
func (p *Pipeline) drawCVD(hist *history.Buffer) {
	if p.cvd == nil || hist == nil {
		return
	}
	p.cvd.Clear()
	n := hist.Len()
	if n < p.cfg.MinSamples || n < 2 {
		return
	}
	w, h := p.cvd.Size()
	lo, hi := hist.At(0).CumDelta, hist.At(0).CumDelta
	for i := 1; i < n; i++ {
		v := hist.At(i).CumDelta
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1 // degenerate range, keep the line flat instead of dividing by zero
	}
	pad := 4.0
	plotY := func(v float64) float64 {
		return float64(h) - pad - (v-lo)/span*(float64(h)-2*pad)
	}
	stepX := float64(w) / float64(n-1)
	for i := 1; i < n; i++ {
		p.cvd.Line(float64(i-1)*stepX, plotY(hist.At(i-1).CumDelta),
			float64(i)*stepX, plotY(hist.At(i).CumDelta), 1.5, cvdColor)
	}
}

// drawDelta 绘制每 tick 的带符号 delta 柱，围绕零轴。
func (p *Pipeline) drawDelta(hist *history.Buffer) {
	if p.delta == nil || hist == nil {
		return
	}
	p.delta.Clear()
	n := hist.Len()
	if n < p.cfg.MinSamples || n == 0 {
		return
	}
	w, h := p.delta.Size()
	halfH := float64(h) / 2

	maxAbs := 0.0
	for i := 0; i < n; i++ {
		if a := math.Abs(hist.At(i).TickDelta); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	p.delta.Line(0, halfH, float64(w), halfH, 1, zeroColor)
	barW := float64(w) / float64(hist.Cap())
	if barW < 1 {
		barW = 1
	}
	for i := 0; i < n; i++ {
		s := hist.At(i)
		bh := math.Abs(s.TickDelta) / maxAbs * halfH
		if bh > halfH {
			bh = halfH
		}
		x := float64(w) - float64(n-i)*barW
		if s.TickDelta >= 0 {
			c := buyColor
			c.A = 0.85
			p.delta.FillRect(x, halfH-bh, barW, bh, c)
		} else {
			c := sellColor
			c.A = 0.85
			p.delta.FillRect(x, halfH, barW, bh, c)
		}
	}
}

// BubbleRadius scales a trade quantity to a bubble radius: sqrt growth,
// clamped at max.
func BubbleRadius(qty, scale, max float64) float64 {
	r := math.Sqrt(qty) * scale
	if r > max {
		return max
	}
	return r
}
