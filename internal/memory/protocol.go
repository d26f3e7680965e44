// Package memory maintains the assistant's accumulated coaching context.
// Chat replies may end in a <memory>{...}</memory> block; the block is cut
// from the visible text and its lists are folded into the stored memory.
package memory

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// blockPattern matches a memory block anchored on the literal tags.
var blockPattern = regexp.MustCompile(`(?s)<memory>(.*?)</memory>`)

// Update is the body of a memory block. A nil list leaves the stored list
// untouched.
type Update struct {
	MorningRoutine   []string `json:"morningRoutine"`
	EveningRoutine   []string `json:"eveningRoutine"`
	WeeklyTreatments []string `json:"weeklyTreatments"`
	AnalysisNotes    []string `json:"analysisNotes"`
}

// ParseBlock finds the last memory block in reply and decodes its body as
// strict JSON. When a well-formed block is found it returns the update and
// the reply with the block removed and surrounding whitespace trimmed.
// Otherwise ok is false and visible is reply unchanged.
func ParseBlock(reply string) (u Update, visible string, ok bool) {
	matches := blockPattern.FindAllStringSubmatchIndex(reply, -1)
	if len(matches) == 0 {
		return Update{}, reply, false
	}
	m := matches[len(matches)-1]
	body := strings.TrimSpace(reply[m[2]:m[3]])
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		return Update{}, reply, false
	}
	visible = strings.TrimSpace(reply[:m[0]] + reply[m[1]:])
	return u, visible, true
}

// MergeList appends incoming to existing, trims every entry, drops empty
// ones, removes case-insensitive duplicates keeping the first occurrence and
// keeps the first MemoryCap entries.
func MergeList(existing, incoming []string) []string {
	out := make([]string, 0, min(len(existing)+len(incoming), domain.MemoryCap))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
			if len(out) == domain.MemoryCap {
				return out
			}
		}
	}
	return out
}

// Apply folds u into m. Lists absent from u are kept as they are.
func Apply(m domain.ChatMemory, u Update, now time.Time) domain.ChatMemory {
	if u.MorningRoutine != nil {
		m.MorningRoutineNames = MergeList(m.MorningRoutineNames, u.MorningRoutine)
	}
	if u.EveningRoutine != nil {
		m.EveningRoutineNames = MergeList(m.EveningRoutineNames, u.EveningRoutine)
	}
	if u.WeeklyTreatments != nil {
		m.WeeklyTreatmentNames = MergeList(m.WeeklyTreatmentNames, u.WeeklyTreatments)
	}
	if u.AnalysisNotes != nil {
		m.AnalysisNotes = MergeList(m.AnalysisNotes, u.AnalysisNotes)
	}
	m.LastUpdated = now
	return m
}

// MergeReply extracts a memory block from a chat reply and folds it into m.
// It returns the updated memory and the text to show the user. A reply
// without a well-formed block leaves m untouched.
func MergeReply(reply string, m domain.ChatMemory, now time.Time) (domain.ChatMemory, string) {
	u, visible, ok := ParseBlock(reply)
	if !ok {
		return m, reply
	}
	return Apply(m, u, now), visible
}

// maxAnalysisNotes bounds how many conditions an analysis contributes.
const maxAnalysisNotes = 5

// AbsorbRoutine records the step names of a freshly generated routine.
func AbsorbRoutine(m domain.ChatMemory, r *domain.Routine, now time.Time) domain.ChatMemory {
	if r == nil {
		return m
	}
	return Apply(m, Update{
		MorningRoutine:   stepNames(r.Morning),
		EveningRoutine:   stepNames(r.Evening),
		WeeklyTreatments: stepNames(r.Weekly),
	}, now)
}

// AbsorbAnalysis records up to five "Condition (severity)" notes from a skin
// analysis and stamps the analysis date.
func AbsorbAnalysis(m domain.ChatMemory, a *domain.SkinAnalysis, now time.Time) domain.ChatMemory {
	if a == nil {
		return m
	}
	notes := make([]string, 0, maxAnalysisNotes)
	for _, c := range a.Conditions {
		if len(notes) == maxAnalysisNotes {
			break
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if sev := strings.TrimSpace(c.Severity); sev != "" {
			name += " (" + sev + ")"
		}
		notes = append(notes, name)
	}
	m = Apply(m, Update{AnalysisNotes: notes}, now)

	analyzed := a.AnalyzedAt
	if analyzed.IsZero() {
		analyzed = now
	}
	m.LastAnalysisDate = &analyzed
	return m
}

func stepNames(steps []domain.RoutineStep) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
