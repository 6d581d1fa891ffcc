package book

// Tape is the bounded trade/marker history. Oldest entries are evicted
// past the cap, FIFO.
type Tape struct {
	tradeCap  int
	markerCap int
	trades    []Trade
	markers   []Marker
}

// NewTape 创建有界成交带。
func NewTape(tradeCap, markerCap int) *Tape {
	if tradeCap <= 0 {
		tradeCap = 200
	}
	if markerCap <= 0 {
		markerCap = 50
	}
	return &Tape{
		tradeCap:  tradeCap,
		markerCap: markerCap,
		trades:    make([]Trade, 0, tradeCap),
		markers:   make([]Marker, 0, markerCap),
	}
}

// Append 追加一笔成交，超出容量时淘汰最旧的。
func (t *Tape) Append(tr Trade) {
	t.trades = append(t.trades, tr)
	if len(t.trades) > t.tradeCap {
		t.trades = t.trades[1:]
	}
}

// AppendMarker 追加一个标记。
func (t *Tape) AppendMarker(m Marker) {
	t.markers = append(t.markers, m)
	if len(t.markers) > t.markerCap {
		t.markers = t.markers[1:]
	}
}

// Trades returns the retained prints, oldest first.
func (t *Tape) Trades() []Trade { return t.trades }

// Markers returns the retained markers, oldest first.
func (t *Tape) Markers() []Marker { return t.markers }
