package flow

import (
	"testing"
	"time"

	"orderflow-viz-go/book"
)

func TestFootprintClusterAccumulation(t *testing.T) {
	fp := NewFootprint(5*time.Second, 0.5, 10)
	ts := time.Unix(1000, 0)

	fp.OnTrade(book.Trade{Ts: ts, Price: 100.0, Qty: 3, Side: book.SideBid})
	fp.OnTrade(book.Trade{Ts: ts.Add(time.Second), Price: 100.0, Qty: 5, Side: book.SideBid})

	bars := fp.Bars()
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}
	c := bars[0].Clusters[100.0]
	if c.BidVol != 8 || c.AskVol != 0 {
		t.Fatalf("expected cluster {8 0}, got %+v", c)
	}
}

func TestFootprintOHLC(t *testing.T) {
	fp := NewFootprint(5*time.Second, 0.5, 10)
	ts := time.Unix(1000, 0)

	fp.OnTrade(book.Trade{Ts: ts, Price: 100, Qty: 1, Side: book.SideBid})
	fp.OnTrade(book.Trade{Ts: ts.Add(time.Second), Price: 102, Qty: 1, Side: book.SideAsk})
	fp.OnTrade(book.Trade{Ts: ts.Add(2 * time.Second), Price: 99, Qty: 1, Side: book.SideAsk})
	fp.OnTrade(book.Trade{Ts: ts.Add(3 * time.Second), Price: 101, Qty: 1, Side: book.SideBid})

	bar := fp.Bars()[0]
	if bar.Open != 100 || bar.High != 102 || bar.Low != 99 || bar.Close != 101 {
		t.Fatalf("unexpected OHLC %+v", bar)
	}
}

func TestFootprintBucketsAndEviction(t *testing.T) {
	fp := NewFootprint(5*time.Second, 0.5, 3)
	ts := time.Unix(1000, 0)

	// four distinct buckets against capacity 3
	for i := 0; i < 4; i++ {
		fp.OnTrade(book.Trade{Ts: ts.Add(time.Duration(i) * 5 * time.Second), Price: 100, Qty: 1, Side: book.SideBid})
	}
	bars := fp.Bars()
	if len(bars) != 3 {
		t.Fatalf("expected bar list capped at 3, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].BucketStart.Before(bars[i-1].BucketStart) {
			t.Fatalf("bars out of order: %v before %v", bars[i].BucketStart, bars[i-1].BucketStart)
		}
	}
	// oldest bucket evicted
	if !bars[0].BucketStart.After(ts.Add(time.Second)) {
		t.Fatalf("oldest bar should have been evicted, first bucket %v", bars[0].BucketStart)
	}
}

func TestFootprintTickRounding(t *testing.T) {
	fp := NewFootprint(5*time.Second, 0.5, 10)
	ts := time.Unix(1000, 0)
	fp.OnTrade(book.Trade{Ts: ts, Price: 100.2, Qty: 2, Side: book.SideAsk})
	c := fp.Bars()[0].Clusters[100.0]
	if c.AskVol != 2 {
		t.Fatalf("expected 100.2 to land in 100.0 cluster, got %+v", fp.Bars()[0].Clusters)
	}
}
