package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderScore renders a skin health score in [0,1] as a bar like
// [████░░░░]  45%. The bar is green from 0.66, yellow from 0.33 and red below.
func RenderScore(score float64, width int) string {
	score = min(max(score, 0), 1)
	width = max(width, 2)

	filled := min(int(score*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case score < 0.33:
		style = StyleRed
	case score < 0.66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", render(style, bar), score*100)
}
