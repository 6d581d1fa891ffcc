package render

import "testing"

func TestIntensityMonotoneInVolume(t *testing.T) {
	prev := -1.0
	for vol := 0.0; vol <= 30; vol += 0.25 {
		got := Intensity(vol, 12, 1)
		if got < prev {
			t.Fatalf("intensity decreased at vol %f: %f < %f", vol, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("intensity out of range at vol %f: %f", vol, got)
		}
		prev = got
	}
}

func TestIntensityClampsAtOne(t *testing.T) {
	if got := Intensity(1000, 12, 1); got != 1 {
		t.Fatalf("expected clamp at 1, got %f", got)
	}
	if got := Intensity(6, 12, 4); got != 1 {
		t.Fatalf("contrast should saturate: got %f", got)
	}
}

func TestIntensityDegenerateInputs(t *testing.T) {
	if got := Intensity(5, 0, 1); got != 0 {
		t.Fatalf("zero reference volume should yield 0, got %f", got)
	}
	if got := Intensity(-1, 12, 1); got != 0 {
		t.Fatalf("negative volume should yield 0, got %f", got)
	}
}

func TestHeatColorBands(t *testing.T) {
	if c := HeatColor(0); c.A != 0 {
		t.Fatalf("zero intensity should be transparent, got %+v", c)
	}
	low := HeatColor(0.1)
	if low.A <= 0 {
		t.Fatalf("low intensity should be visible, got %+v", low)
	}
	hot := HeatColor(1)
	if hot.R != 255 || hot.G != 250 {
		t.Fatalf("full intensity should be white-hot, got %+v", hot)
	}
	if hot.A > 0.9 {
		t.Fatalf("alpha should cap at 0.9, got %f", hot.A)
	}
}

func TestBubbleRadiusMonotoneAndClamped(t *testing.T) {
	prev := -1.0
	for qty := 0.5; qty < 200; qty *= 1.5 {
		r := BubbleRadius(qty, 2, 14)
		if r < prev {
			t.Fatalf("radius decreased at qty %f", qty)
		}
		if r > 14 {
			t.Fatalf("radius exceeded clamp at qty %f: %f", qty, r)
		}
		prev = r
	}
	if r := BubbleRadius(10000, 2, 14); r != 14 {
		t.Fatalf("large qty should clamp to 14, got %f", r)
	}
}
