package book

import (
	"math"
	"math/rand"
	"testing"
)

func testLadderConfig() LadderConfig {
	return LadderConfig{
		TickSize:          0.5,
		HalfWindow:        10,
		RecenterThreshold: 5,
		VolumeFloor:       0.4,
		BaseVolume:        8,
		PerturbMagnitude:  0.6,
		WallStep:          5,
		WallBoost:         3,
	}
}

func TestLadderLevelCount(t *testing.T) {
	lad, err := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewLadder: %v", err)
	}
	lad.Refresh(100)
	if got := len(lad.Levels()); got != 21 {
		t.Fatalf("expected 21 levels, got %d", got)
	}
	if lad.Center() != 100 {
		t.Fatalf("expected center 100, got %f", lad.Center())
	}
}

func TestLadderRecenterThreshold(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	lad.Refresh(100)

	// within threshold: no rebuild
	lad.Refresh(104)
	if lad.Center() != 100 {
		t.Fatalf("should not recenter within threshold, center=%f", lad.Center())
	}

	// beyond threshold: rebuild centered at the new price
	lad.Refresh(105.6)
	if lad.Center() != 105.5 {
		t.Fatalf("expected recenter to 105.5, got %f", lad.Center())
	}
	mid := lad.Levels()[10]
	if mid.Price != 105.5 {
		t.Fatalf("expected middle level 105.5, got %f", mid.Price)
	}
}

func TestLadderVolumeFloor(t *testing.T) {
	cfg := testLadderConfig()
	cfg.BaseVolume = 0.1
	cfg.PerturbMagnitude = 5 // perturbation dwarfs the seed volume
	lad, _ := NewLadder(cfg, rand.New(rand.NewSource(7)))
	for i := 0; i < 200; i++ {
		lad.Refresh(100)
		for _, lvl := range lad.Levels() {
			if lvl.Volume < cfg.VolumeFloor {
				t.Fatalf("volume %f below floor %f", lvl.Volume, cfg.VolumeFloor)
			}
		}
	}
}

func TestLadderSideClassification(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	lad.Refresh(100)
	lad.Refresh(100.2)
	for _, lvl := range lad.Levels() {
		want := SideAsk
		if lvl.Price < 100.2 {
			want = SideBid
		}
		if lvl.Side != want {
			t.Fatalf("level %f: side %s, want %s", lvl.Price, lvl.Side, want)
		}
	}
}

func TestLadderDeterministicWithSeed(t *testing.T) {
	a, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(42)))
	b, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(42)))
	for i := 0; i < 50; i++ {
		a.Refresh(100 + float64(i)*0.1)
		b.Refresh(100 + float64(i)*0.1)
	}
	la, lb := a.Levels(), b.Levels()
	if len(la) != len(lb) {
		t.Fatalf("level count mismatch %d vs %d", len(la), len(lb))
	}
	for i := range la {
		if la[i] != lb[i] {
			t.Fatalf("level %d differs: %+v vs %+v", i, la[i], lb[i])
		}
	}
}

func TestLadderVisibleFilter(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(3)))
	lad.Refresh(100)
	min := 2.0
	for _, lvl := range lad.Visible(min) {
		if lvl.Volume < min {
			t.Fatalf("visible level %f has volume %f < %f", lvl.Price, lvl.Volume, min)
		}
	}
}

func TestLadderQuantize(t *testing.T) {
	lad, _ := NewLadder(testLadderConfig(), rand.New(rand.NewSource(1)))
	if got := lad.Quantize(100.26); math.Abs(got-100.5) > 1e-9 {
		t.Fatalf("quantize 100.26 = %f, want 100.5", got)
	}
	if got := lad.Quantize(100.24); math.Abs(got-100.0) > 1e-9 {
		t.Fatalf("quantize 100.24 = %f, want 100.0", got)
	}
}
