package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// FormatRoutine renders the three buckets, the score and the next check-in.
func FormatRoutine(r *domain.Routine, now time.Time) string {
	if r == nil || r.StepCount() == 0 {
		return Dim("No routine yet. Run `dermaloop routine generate`.") + "\n"
	}

	var b strings.Builder
	for _, bucket := range domain.Buckets {
		steps := r.Steps(bucket)
		if len(steps) == 0 {
			continue
		}
		b.WriteString(Header(string(bucket)))
		b.WriteString("\n")
		for i, s := range steps {
			b.WriteString(formatStep(i+1, s))
		}
		b.WriteString("\n")
	}

	if len(r.LifestyleTips) > 0 {
		b.WriteString(Header("Lifestyle"))
		b.WriteString("\n")
		b.WriteString(Bullets(r.LifestyleTips))
		b.WriteString("\n")
	}

	p := r.ProgressTracking
	fmt.Fprintf(&b, "%s %s\n", Bold("Skin health"), RenderScore(p.SkinHealthScore, 20))
	fmt.Fprintf(&b, "%s %s\n", Bold("Next check-in"), CheckIn(p.NextCheckIn.Time, now))
	if len(p.Goals) > 0 {
		fmt.Fprintf(&b, "%s %s\n", Bold("Goals"), strings.Join(p.Goals, ", "))
	}

	if len(r.ProductRecommendations) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatProducts(r.ProductRecommendations))
	}
	return b.String()
}

func formatStep(n int, s domain.RoutineStep) string {
	var meta []string
	if s.Category != "" {
		meta = append(meta, string(s.Category))
	}
	if d := Duration(int(s.Duration)); d != "" {
		meta = append(meta, d)
	}
	if s.Frequency != "" {
		meta = append(meta, strings.ReplaceAll(string(s.Frequency), "_", " "))
	}

	line := fmt.Sprintf("%2d. %s", n, Bold(s.Name))
	if len(meta) > 0 {
		line += "  " + Dim(strings.Join(meta, " · "))
	}
	line += "\n"
	if s.Description != "" {
		line += "    " + s.Description + "\n"
	}
	for _, tip := range s.Tips {
		line += "    " + Dim("tip: "+tip) + "\n"
	}
	return line
}

// FormatChanges renders the change-log lines of a regeneration.
func FormatChanges(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(Green("✓ "))
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}
