package render

import "time"

// Mapper 将价格/时间域映射到像素空间。价格轴取 center ± halfRange/zoom
// 的线性区间；时间轴以固定回看窗口线性左移（最新在右缘）。
type Mapper struct {
	w, h      int
	center    float64
	halfRange float64
	zoom      float64
	lookback  time.Duration
}

// NewMapper 创建映射器。
func NewMapper(w, h int, halfRange float64, lookback time.Duration) *Mapper {
	if lookback <= 0 {
		lookback = 60 * time.Second
	}
	return &Mapper{w: w, h: h, halfRange: halfRange, zoom: 1, lookback: lookback}
}

// SetViewport 更新像素尺寸；不影响价格/历史状态。
func (m *Mapper) SetViewport(w, h int) {
	m.w, m.h = w, h
}

// SetZoom 更新缩放；非正值忽略。
func (m *Mapper) SetZoom(z float64) {
	if z > 0 {
		m.zoom = z
	}
}

// SetCenter 更新价格锚点。
func (m *Mapper) SetCenter(price float64) {
	m.center = price
}

// Zoom 返回当前缩放。
func (m *Mapper) Zoom() float64 { return m.zoom }

// Size 返回视口尺寸。
func (m *Mapper) Size() (int, int) { return m.w, m.h }

// Lookback 返回时间回看窗口。
func (m *Mapper) Lookback() time.Duration { return m.lookback }

// Top returns the highest visible price.
func (m *Mapper) Top() float64 { return m.center + m.halfRange/m.zoom }

// Bottom returns the lowest visible price.
func (m *Mapper) Bottom() float64 { return m.center - m.halfRange/m.zoom }

// PriceY maps a price to a vertical pixel, 0 at the top of the window.
func (m *Mapper) PriceY(price float64) float64 {
	span := m.Top() - m.Bottom()
	if span <= 0 {
		span = 1
	}
	return (m.Top() - price) / span * float64(m.h)
}

// PriceAt 为 PriceY 的逆映射，便于交互拾取。
func (m *Mapper) PriceAt(y float64) float64 {
	span := m.Top() - m.Bottom()
	if span <= 0 {
		span = 1
	}
	return m.Top() - y/float64(m.h)*span
}

// AgeX maps an event age to a horizontal pixel; age 0 lands on the right
// edge, lookback-old events on the left edge.
func (m *Mapper) AgeX(age time.Duration) float64 {
	return float64(m.w) - age.Seconds()/m.lookback.Seconds()*float64(m.w)
}

// AgeAt 为 AgeX 的逆映射。
func (m *Mapper) AgeAt(x float64) time.Duration {
	frac := (float64(m.w) - x) / float64(m.w)
	return time.Duration(frac * float64(m.lookback))
}

// RowHeight 返回一个 tick 对应的行高（像素）。
func (m *Mapper) RowHeight(tickSize float64) float64 {
	span := m.Top() - m.Bottom()
	if span <= 0 {
		span = 1
	}
	return tickSize / span * float64(m.h)
}

// ColWidth 返回一个帧间隔对应的列宽（像素）。
func (m *Mapper) ColWidth(interval time.Duration) float64 {
	return interval.Seconds() / m.lookback.Seconds() * float64(m.w)
}
