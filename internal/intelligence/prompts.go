package intelligence

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/memory"
)

// routineSystemPrompt describes the routine document the model must return.
const routineSystemPrompt = `You are a skincare coach building a personal routine.
Respond with a single JSON object and nothing else. Use exactly these keys:

{
  "morningRoutine":   [step, ...],   // at most 4 steps
  "eveningRoutine":   [step, ...],   // at most 4 steps
  "weeklyTreatments": [step, ...],   // at most 2 steps
  "lifestyleTips":    ["..."],
  "productRecommendations": [],
  "progressTracking": {
    "skinHealthScore": 0.0-1.0,
    "improvementAreas": ["..."],
    "nextCheckIn": "YYYY-MM-DDTHH:MM:SSZ",
    "goals": ["..."]
  }
}

Each step is:
{"id": "", "name": "...", "description": "...", "category": "cleanser|toner|serum|exfoliant|bha|aha|treatment|moisturizer|sunscreen|mask|clay|other",
 "duration": seconds, "frequency": "daily|twice_daily|nightly|weekly|as_needed",
 "stepTime": "morning|evening|anytime", "conflictsWith": ["retinoid", "vitamin_c", ...],
 "requiresSPF": true|false, "tips": ["..."]}

RULES:
1. Sunscreen belongs only in the morning routine.
2. Never pair a retinoid with a strong exfoliant or vitamin C in the same routine.
3. Keep names short and product-neutral (e.g. "Gentle Cleanser").
4. Do not wrap the JSON in markdown fences. Do not add comments.`

// routineStrictPrompt is sent when the first reply could not be decoded.
const routineStrictPrompt = `Your previous answer could not be parsed.
Return ONLY the JSON object described in the system message. No prose, no markdown, no comments, no trailing commas. Every string must be closed and every array and object terminated.`

// analysisSystemPrompt instructs the vision model to grade a selfie.
const analysisSystemPrompt = `You are a dermatology assistant analysing a facial photo.
Respond with a single JSON object and nothing else:

{
  "skinAge": integer estimate of apparent skin age in years,
  "skinHealthScore": number between 0 and 1,
  "skinType": "oily|dry|combination|normal|sensitive",
  "conditions": [{"name": "...", "severity": "mild|moderate|severe"}],
  "summary": "two or three sentences for the user"
}

List at most five conditions, most significant first. Do not give a diagnosis.`

// analysisUserPrompt accompanies the image.
const analysisUserPrompt = "Analyse the skin in this photo."

// chatSystemPrompt is the fixed part of the assistant persona. The memory
// section and the block instructions are appended per turn.
const chatSystemPrompt = `You are a friendly skincare coach inside the Dermaloop app.
Answer briefly and practically. Never diagnose medical conditions; suggest a dermatologist for anything persistent or painful.`

// memoryInstructions teaches the model the <memory> block protocol.
const memoryInstructions = `When the user tells you something worth remembering about their routine or skin, end your reply with a block of the form:
<memory>{"morningRoutine":[],"eveningRoutine":[],"weeklyTreatments":[],"analysisNotes":[]}</memory>
Include only new entries, as short names. Omit the block when nothing changed. The user never sees it.`

// buildRoutineUserPrompt summarises what is known about the user.
func buildRoutineUserPrompt(a *domain.SkinAnalysis, m domain.ChatMemory) string {
	var b strings.Builder
	b.WriteString("Build my skincare routine.\n")
	if a != nil {
		fmt.Fprintf(&b, "\nLatest analysis:\n- Skin age: %d\n- Skin type: %s\n- Health score: %.2f\n",
			a.SkinAge, orUnknown(a.SkinType), a.SkinHealthScore)
		for _, c := range a.Conditions {
			fmt.Fprintf(&b, "- Condition: %s (%s)\n", c.Name, orUnknown(c.Severity))
		}
		if a.Summary != "" {
			fmt.Fprintf(&b, "- Summary: %s\n", a.Summary)
		}
	}
	if !m.IsEmpty() {
		b.WriteString("\n")
		b.WriteString(memory.Render(m))
	}
	return b.String()
}

// buildChatSystemPrompt joins the persona, the remembered context and the
// memory block protocol.
func buildChatSystemPrompt(m domain.ChatMemory) string {
	parts := []string{chatSystemPrompt}
	if !m.IsEmpty() {
		parts = append(parts, memory.Render(m))
	}
	parts = append(parts, memoryInstructions)
	return strings.Join(parts, "\n\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
