package render

// Color 带不透明度的 RGB 颜色
type Color struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// Surface is the minimal drawing target a render pass needs. Passes never
// touch a backend directly, so a recording fake can stand in for tests and
// a frame-batch encoder can stand in for the ws transport.
type Surface interface {
	Size() (w, h int)
	Clear()
	FillRect(x, y, w, h float64, c Color)
	Line(x1, y1, x2, y2, width float64, c Color)
	Circle(x, y, r float64, c Color)
	Text(s string, x, y, size float64, c Color)
}

// Op 一条已录制的绘制指令，可直接序列化下发给画布宿主。
type Op struct {
	Kind  string  `json:"k"` // clear|rect|line|circle|text
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Y2    float64 `json:"y2,omitempty"`
	R     float64 `json:"r,omitempty"`
	Width float64 `json:"lw,omitempty"`
	Size  float64 `json:"fs,omitempty"`
	Text  string  `json:"t,omitempty"`
	Color Color   `json:"c"`
}

// Recorder 将绘制指令录制为 Op 序列的 Surface 实现。
type Recorder struct {
	W, H int
	Ops  []Op
}

// NewRecorder 创建给定尺寸的录制面。
func NewRecorder(w, h int) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) Size() (int, int) { return r.W, r.H }

func (r *Recorder) Clear() {
	r.Ops = append(r.Ops, Op{Kind: "clear"})
}

func (r *Recorder) FillRect(x, y, w, h float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: "rect", X: x, Y: y, W: w, H: h, Color: c})
}

func (r *Recorder) Line(x1, y1, x2, y2, width float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: "line", X: x1, Y: y1, X2: x2, Y2: y2, Width: width, Color: c})
}

func (r *Recorder) Circle(x, y, rad float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: "circle", X: x, Y: y, R: rad, Color: c})
}

func (r *Recorder) Text(s string, x, y, size float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: "text", X: x, Y: y, Size: size, Text: s, Color: c})
}

// Flush 返回并清空已录制的指令。
func (r *Recorder) Flush() []Op {
	ops := r.Ops
	r.Ops = nil
	return ops
}

// Count returns how many ops of the given kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
