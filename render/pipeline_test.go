package render

import (
	"math"
	"testing"
	"time"

	"orderflow-viz-go/book"
	"orderflow-viz-go/flow"
	"orderflow-viz-go/history"
)

func testPipelineConfig() PipelineConfig {
	return PipelineConfig{
		RefVolume:       12,
		Contrast:        1,
		MinSamples:      3,
		BubbleScale:     2,
		MaxBubbleRadius: 14,
		ZoomLabelMin:    1.5,
		GridTicks:       10,
		TickSize:        0.5,
		FrameInterval:   100 * time.Millisecond,
	}
}

func fillHistory(n int, now time.Time) *history.Buffer {
	h := history.NewBuffer(64)
	for i := 0; i < n; i++ {
		age := time.Duration(n-1-i) * 100 * time.Millisecond
		h.Append(history.Sample{
			Ts:        now.Add(-age),
			Levels:    []book.PriceLevel{{Price: 100, Volume: 8, Side: book.SideBid}, {Price: 100.5, Volume: 20, Side: book.SideAsk}},
			CumDelta:  float64(i),
			TickDelta: float64(i%3 - 1),
		})
	}
	return h
}

func testSurfaces(m *Mapper) (*Recorder, *Recorder, *Recorder) {
	w, h := m.Size()
	return NewRecorder(w, h), NewRecorder(w, 120), NewRecorder(w, 100)
}

func TestPipelineDrawsAllPasses(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	main, cvd, delta := testSurfaces(m)
	p := NewPipeline(testPipelineConfig(), m, main, cvd, delta)

	hist := fillHistory(10, now)
	tape := book.NewTape(10, 5)
	tape.Append(book.Trade{Ts: now.Add(-time.Second), Price: 100, Qty: 4, Side: book.SideBid, Active: true})
	fp := flow.NewFootprint(5*time.Second, 0.5, 10)
	fp.OnTrade(book.Trade{Ts: now.Add(-2 * time.Second), Price: 100, Qty: 2, Side: book.SideBid})

	p.Render(now, hist, tape, fp)

	if main.Count("rect") == 0 {
		t.Fatalf("heatmap pass produced no cells")
	}
	if main.Count("circle") != 1 {
		t.Fatalf("expected one trade bubble, got %d", main.Count("circle"))
	}
	if main.Count("line") == 0 {
		t.Fatalf("expected grid/wick lines")
	}
	if cvd.Count("line") == 0 {
		t.Fatalf("cvd pass produced no polyline")
	}
	if delta.Count("rect") == 0 {
		t.Fatalf("delta pass produced no bars")
	}
}

func TestPipelinePassTimerSeesEveryPass(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	main, cvd, delta := testSurfaces(m)
	p := NewPipeline(testPipelineConfig(), m, main, cvd, delta)

	seen := make(map[string]int)
	p.SetPassTimer(func(pass string, seconds float64) {
		if seconds < 0 {
			t.Fatalf("pass %s reported negative duration %f", pass, seconds)
		}
		seen[pass]++
	})

	p.Render(now, fillHistory(10, now), book.NewTape(10, 5), flow.NewFootprint(5*time.Second, 0.5, 10))

	for _, pass := range []string{"heatmap", "overlay", "cvd", "delta"} {
		if seen[pass] != 1 {
			t.Fatalf("pass %s observed %d times, want 1", pass, seen[pass])
		}
	}
}

func TestPipelineColdStartSkipsHistoryPasses(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	main, cvd, delta := testSurfaces(m)
	p := NewPipeline(testPipelineConfig(), m, main, cvd, delta)

	hist := fillHistory(2, now) // below MinSamples
	p.Render(now, hist, book.NewTape(10, 5), flow.NewFootprint(5*time.Second, 0.5, 10))

	if main.Count("rect") != 0 {
		t.Fatalf("heatmap should defer below min samples, drew %d cells", main.Count("rect"))
	}
	if cvd.Count("line") != 0 {
		t.Fatalf("cvd should defer below min samples")
	}
	if delta.Count("rect") != 0 {
		t.Fatalf("delta should defer below min samples")
	}
	// grid still draws: overlay is an independent pass
	if main.Count("line") == 0 {
		t.Fatalf("grid should draw regardless of history")
	}
}

func TestPipelineNilSurfacesDoNotPanic(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	p := NewPipeline(testPipelineConfig(), m, nil, nil, nil)
	p.Render(now, fillHistory(10, now), book.NewTape(10, 5), flow.NewFootprint(5*time.Second, 0.5, 10))
}

func TestPipelineCVDZeroRange(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	main, cvd, delta := testSurfaces(m)
	p := NewPipeline(testPipelineConfig(), m, main, cvd, delta)

	h := history.NewBuffer(16)
	for i := 0; i < 8; i++ {
		h.Append(history.Sample{Ts: now.Add(time.Duration(i-8) * 100 * time.Millisecond), CumDelta: 5})
	}
	p.Render(now, h, book.NewTape(10, 5), flow.NewFootprint(5*time.Second, 0.5, 10))

	for _, op := range cvd.Ops {
		if math.IsNaN(op.Y) || math.IsInf(op.Y, 0) || math.IsNaN(op.Y2) || math.IsInf(op.Y2, 0) {
			t.Fatalf("degenerate range produced non-finite coordinate: %+v", op)
		}
	}
}

func TestPipelineDeltaBarsSplitAtZeroLine(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	main, cvd, delta := testSurfaces(m)
	p := NewPipeline(testPipelineConfig(), m, main, cvd, delta)

	h := history.NewBuffer(16)
	for i := 0; i < 6; i++ {
		d := 3.0
		if i%2 == 1 {
			d = -3.0
		}
		h.Append(history.Sample{Ts: now.Add(time.Duration(i-6) * 100 * time.Millisecond), TickDelta: d})
	}
	p.Render(now, h, book.NewTape(10, 5), flow.NewFootprint(5*time.Second, 0.5, 10))

	_, ph := delta.Size()
	halfH := float64(ph) / 2
	for _, op := range delta.Ops {
		if op.Kind != "rect" {
			continue
		}
		if op.H > halfH+1e-9 {
			t.Fatalf("bar taller than half panel: %+v", op)
		}
		up := op.Y+op.H <= halfH+1e-9
		down := op.Y >= halfH-1e-9
		if !up && !down {
			t.Fatalf("bar straddles zero line: %+v", op)
		}
	}
}

func TestPipelineLayerToggles(t *testing.T) {
	now := time.Unix(2000, 0)
	m := NewMapper(400, 300, 10, 60*time.Second)
	m.SetCenter(100)
	main, cvd, delta := testSurfaces(m)
	p := NewPipeline(testPipelineConfig(), m, main, cvd, delta)
	p.SetLayers(Layers{}) // everything off

	tape := book.NewTape(10, 5)
	tape.Append(book.Trade{Ts: now, Price: 100, Qty: 4, Side: book.SideBid, Active: true})
	p.Render(now, fillHistory(10, now), tape, flow.NewFootprint(5*time.Second, 0.5, 10))

	if main.Count("rect") != 0 || main.Count("circle") != 0 {
		t.Fatalf("disabled layers still drew on main surface")
	}
}
