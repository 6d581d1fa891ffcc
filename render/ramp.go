package render

// Intensity normalizes a level volume against the reference volume under
// the given contrast, clamped to [0,1]. Monotone in volume for fixed
// contrast.
func Intensity(volume, refVolume, contrast float64) float64 {
	if refVolume <= 0 || volume <= 0 {
		return 0
	}
	v := volume / refVolume * contrast
	if v > 1 {
		return 1
	}
	return v
}

// 五段热力色带：透明 -> 蓝 -> 青 -> 琥珀 -> 橙 -> 白热
var heatBands = []struct {
	hi float64
	c  Color
}{
	{0.25, Color{R: 30, G: 80, B: 220}},
	{0.5, Color{R: 0, G: 200, B: 230}},
	{0.75, Color{R: 255, G: 190, B: 40}},
	{0.9, Color{R: 255, G: 120, B: 20}},
	{1.0, Color{R: 255, G: 250, B: 240}},
}

// HeatColor maps a [0,1] intensity through the fixed heat ramp. Near-zero
// intensity is fully transparent.
func HeatColor(intensity float64) Color {
	if intensity < 0.02 {
		return Color{}
	}
	for _, band := range heatBands {
		if intensity <= band.hi {
			c := band.c
			c.A = heatAlpha(intensity)
			return c
		}
	}
	c := heatBands[len(heatBands)-1].c
	c.A = heatAlpha(intensity)
	return c
}

func heatAlpha(intensity float64) float64 {
	a := 0.15 + intensity*0.75
	if a > 0.9 {
		a = 0.9
	}
	return a
}
