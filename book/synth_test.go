package book

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func testSynth(t *testing.T, cfg SynthConfig) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(cfg, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("NewSynthesizer: %v", err)
	}
	return s
}

func TestTouchGeneratesTradesNearPrice(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	lad.Refresh(100)
	s := testSynth(t, SynthConfig{TickSize: 0.5, ShrinkFactor: 0.65, MinQty: 2, MaxQty: 2})
	tape := NewTape(100, 20)

	trades := s.Touch(lad, tape, 100, time.Unix(1000, 0))
	if len(trades) != 3 {
		t.Fatalf("expected 3 touched levels (99.5, 100, 100.5), got %d", len(trades))
	}
	for _, tr := range trades {
		if math.Abs(tr.Price-100) > 0.5 {
			t.Fatalf("trade at %f outside one tick of price", tr.Price)
		}
		if tr.Qty != 2 {
			t.Fatalf("expected fixed qty 2, got %f", tr.Qty)
		}
		if !tr.Active {
			t.Fatalf("new trade must be active")
		}
		want := SideAsk
		if tr.Price <= 100 {
			want = SideBid
		}
		if tr.Side != want {
			t.Fatalf("trade at %f: aggressor %s, want %s", tr.Price, tr.Side, want)
		}
	}
	if len(tape.Trades()) != 3 {
		t.Fatalf("tape should hold 3 trades, got %d", len(tape.Trades()))
	}
}

func TestTouchShrinksVolume(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	lad.Refresh(100)
	before := make(map[float64]float64)
	for _, lvl := range lad.Levels() {
		before[lvl.Price] = lvl.Volume
	}

	s := testSynth(t, SynthConfig{TickSize: 0.5, ShrinkFactor: 0.65, MinQty: 1, MaxQty: 2})
	s.Touch(lad, NewTape(10, 10), 100, time.Unix(1000, 0))

	for _, lvl := range lad.Levels() {
		if math.Abs(lvl.Price-100) > 0.5 {
			if lvl.Volume != before[lvl.Price] {
				t.Fatalf("untouched level %f changed volume", lvl.Price)
			}
			continue
		}
		if lvl.Volume > before[lvl.Price] {
			t.Fatalf("touched level %f did not shrink: %f -> %f", lvl.Price, before[lvl.Price], lvl.Volume)
		}
		if lvl.Volume < lad.Floor() {
			t.Fatalf("touched level %f below floor", lvl.Price)
		}
	}
}

func TestTouchEmitsMarkerAboveThreshold(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	lad.Refresh(100)
	tape := NewTape(100, 20)

	// fixed qty 10 over threshold 5: every print carries a marker
	s := testSynth(t, SynthConfig{TickSize: 0.5, ShrinkFactor: 0.65, MinQty: 10, MaxQty: 10, MarkerThreshold: 5})
	trades := s.Touch(lad, tape, 100, time.Unix(1000, 0))
	if len(tape.Markers()) != len(trades) {
		t.Fatalf("expected %d markers, got %d", len(trades), len(tape.Markers()))
	}
	for _, m := range tape.Markers() {
		if m.Kind != MarkerStop && m.Kind != MarkerIceberg && m.Kind != MarkerSpoof {
			t.Fatalf("unexpected marker kind %v", m.Kind)
		}
	}
}

func TestTapeEvictsOldest(t *testing.T) {
	tape := NewTape(3, 2)
	for i := 0; i < 5; i++ {
		tape.Append(Trade{Price: float64(i)})
	}
	got := tape.Trades()
	if len(got) != 3 {
		t.Fatalf("tape should cap at 3, got %d", len(got))
	}
	if got[0].Price != 2 || got[2].Price != 4 {
		t.Fatalf("expected trades [2 3 4], got %+v", got)
	}
}
