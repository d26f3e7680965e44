package domain

import "time"

// MemoryCap bounds every list of a ChatMemory.
const MemoryCap = 12

// ChatMemory is the accumulated coaching context carried across chat turns.
// No two entries of the same list are equal ignoring case and surrounding
// whitespace, and no list holds more than MemoryCap entries.
type ChatMemory struct {
	MorningRoutineNames  []string   `json:"morningRoutineNames"`
	EveningRoutineNames  []string   `json:"eveningRoutineNames"`
	WeeklyTreatmentNames []string   `json:"weeklyTreatmentNames"`
	AnalysisNotes        []string   `json:"analysisNotes"`
	LastUpdated          time.Time  `json:"lastUpdated"`
	LastAnalysisDate     *time.Time `json:"lastAnalysisDate,omitempty"`
}

// IsEmpty reports whether the memory carries no entries.
func (m ChatMemory) IsEmpty() bool {
	return len(m.MorningRoutineNames) == 0 && len(m.EveningRoutineNames) == 0 &&
		len(m.WeeklyTreatmentNames) == 0 && len(m.AnalysisNotes) == 0
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one persisted turn of the assistant conversation.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
