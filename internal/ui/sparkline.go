package ui

import "math"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the newest width samples as block characters scaled
// against their peak. Missing history is drawn as the lowest block on the
// left so the graph always fills width cells.
func Sparkline(samples []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	peak := Peak(samples)
	top := float64(len(sparkBlocks) - 1)

	out := make([]rune, 0, width)
	for range width - len(samples) {
		out = append(out, sparkBlocks[0])
	}
	for _, v := range samples {
		level := 0
		if peak > 0 && v > 0 {
			level = int(math.Round(v / peak * top))
		}
		out = append(out, sparkBlocks[level])
	}
	return string(out)
}

// Peak returns the largest sample, or 0 for an empty or idle history.
func Peak(samples []float64) float64 {
	var peak float64
	for _, v := range samples {
		peak = max(peak, v)
	}
	return peak
}
