package metric

import (
	"math"
	"strings"
)

var sparkRunes = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline renders normalized [0,1] samples as a fixed-width
// string of block runes, evenly subsampling when the data is wider than
// width and padding with '─' when narrower.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 {
		return strings.Repeat("─", width)
	}

	step := 1
	if len(data) > width {
		step = len(data) / width
	}

	var b strings.Builder
	count := 0
	for i := 0; i < len(data) && count < width; i += step {
		v := math.Max(0, math.Min(1, data[i]))
		idx := int(math.Round(v * 7))
		if idx > 7 {
			idx = 7
		}
		b.WriteRune(sparkRunes[idx])
		count++
	}

	for count < width {
		b.WriteRune('─')
		count++
	}
	return b.String()
}
