package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// FormatAnalysis renders a skin analysis as a titled box.
func FormatAnalysis(a *domain.SkinAnalysis) string {
	if a == nil {
		return Dim("No analysis yet. Run `dermaloop analyze --image <file>`.") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", Bold("Skin age"), a.SkinAge)
	if a.SkinType != "" {
		fmt.Fprintf(&b, "%s %s\n", Bold("Skin type"), a.SkinType)
	}
	fmt.Fprintf(&b, "%s %s\n", Bold("Health"), RenderScore(a.SkinHealthScore, 20))

	if len(a.Conditions) > 0 {
		b.WriteString("\n")
		for _, c := range a.Conditions {
			line := "  - " + c.Name
			if sev := Severity(c.Severity); sev != "" {
				line += " " + sev
			}
			b.WriteString(line + "\n")
		}
	}
	if a.Summary != "" {
		b.WriteString("\n")
		b.WriteString(a.Summary)
	}
	return RenderBox("Skin analysis", strings.TrimRight(b.String(), "\n")) + "\n"
}
