package feed

import "time"

// ConnState 行情源连接状态
type ConnState int

const (
	StateConnected ConnState = iota
	StateStale
	StateDisconnected
)

// String 返回状态名称
func (s ConnState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateStale:
		return "STALE"
	case StateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Ticker is one normalized price update from the upstream feed.
type Ticker struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
	High24h       float64
	Low24h        float64
	Volume        float64
	Ts            time.Time
	State         ConnState
}

// Source 行情源：引擎在每帧开始时拉取最新值；无新值时沿用旧值。
type Source interface {
	// Latest returns the most recent ticker; ok is false before the
	// first update arrives.
	Latest() (Ticker, bool)
}
