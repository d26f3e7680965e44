package formatter

import (
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// FormatMemory renders the assistant's accumulated memory.
func FormatMemory(m domain.ChatMemory) string {
	if m.IsEmpty() {
		return Dim("Nothing remembered yet.") + "\n"
	}

	var b strings.Builder
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(Header(title))
		b.WriteString("\n")
		b.WriteString(Bullets(items))
		b.WriteString("\n")
	}
	section("Morning", m.MorningRoutineNames)
	section("Evening", m.EveningRoutineNames)
	section("Weekly", m.WeeklyTreatmentNames)
	section("Analysis notes", m.AnalysisNotes)

	if m.LastAnalysisDate != nil {
		b.WriteString(Dim("Last analysis: " + m.LastAnalysisDate.Format("Jan 2, 2006")))
		b.WriteString("\n")
	}
	if !m.LastUpdated.IsZero() {
		b.WriteString(Dim("Updated: " + m.LastUpdated.Format("Jan 2, 2006 15:04")))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatChatMessage renders one chat turn with its speaker label.
func FormatChatMessage(msg domain.ChatMessage) string {
	label := render(StyleBlue, "you")
	if msg.Role == domain.ChatRoleAssistant {
		label = render(StylePurple, "coach")
	}
	return label + "  " + msg.Content + "\n"
}
