package book

import "time"

// Side marks which side of the book a level sits on, or which side
// aggressed a trade.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

// String 返回方向名称
func (s Side) String() string {
	if s == SideBid {
		return "BID"
	}
	return "ASK"
}

// PriceLevel is one rung of the synthetic depth ladder.
type PriceLevel struct {
	Price  float64
	Volume float64
	Side   Side
}

// Trade is a synthetic print. Immutable once created.
type Trade struct {
	Ts     time.Time
	Price  float64
	Qty    float64
	Side   Side // aggressor
	Active bool
}

// MarkerKind classifies an annotative liquidity event.
type MarkerKind int

const (
	MarkerStop MarkerKind = iota
	MarkerIceberg
	MarkerSpoof
)

// String 返回标记类型名称
func (k MarkerKind) String() string {
	switch k {
	case MarkerStop:
		return "STOP"
	case MarkerIceberg:
		return "ICEBERG"
	case MarkerSpoof:
		return "SPOOF"
	default:
		return "UNKNOWN"
	}
}

// Marker annotates an outsized print. Only the renderer consumes it.
type Marker struct {
	Ts    time.Time
	Price float64
	Kind  MarkerKind
	Side  Side
}
