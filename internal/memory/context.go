package memory

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// Render formats m as a compact context section for the assistant's system
// prompt. An empty memory renders as "".
func Render(m domain.ChatMemory) string {
	if m.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("What you remember about this user:\n")
	section := func(label string, items []string) {
		if len(items) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", label, strings.Join(items, ", "))
		}
	}
	section("Morning routine", m.MorningRoutineNames)
	section("Evening routine", m.EveningRoutineNames)
	section("Weekly treatments", m.WeeklyTreatmentNames)
	section("Skin analysis notes", m.AnalysisNotes)
	if m.LastAnalysisDate != nil {
		fmt.Fprintf(&b, "- Last analysis: %s\n", m.LastAnalysisDate.Format("2006-01-02"))
	}
	return strings.TrimRight(b.String(), "\n")
}
