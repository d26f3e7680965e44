package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

const cleanserReply = `Use a gentle cleanser daily.<memory>{"morningRoutine":["Gentle Cleanser"],"eveningRoutine":[],"weeklyTreatments":[],"analysisNotes":[]}</memory>`

func TestMergeReply_StripsBlockAndMerges(t *testing.T) {
	m, visible := MergeReply(cleanserReply, domain.ChatMemory{}, now)

	assert.Equal(t, "Use a gentle cleanser daily.", visible)
	assert.Equal(t, []string{"Gentle Cleanser"}, m.MorningRoutineNames)
	assert.Empty(t, m.EveningRoutineNames)
	assert.Equal(t, now, m.LastUpdated)
}

func TestMergeReply_RepeatedMergeKeepsOneEntry(t *testing.T) {
	m, _ := MergeReply(cleanserReply, domain.ChatMemory{}, now)
	lower := strings.Replace(cleanserReply, `["Gentle Cleanser"]`, `["gentle cleanser", " Gentle Cleanser "]`, 1)
	m, visible := MergeReply(lower, m, now)

	assert.Equal(t, "Use a gentle cleanser daily.", visible)
	assert.Equal(t, []string{"Gentle Cleanser"}, m.MorningRoutineNames)
}

func TestMergeReply_NoBlockIsNotAnError(t *testing.T) {
	before := domain.ChatMemory{MorningRoutineNames: []string{"Toner"}}
	m, visible := MergeReply("  Drink more water.  ", before, now)

	assert.Equal(t, "  Drink more water.  ", visible)
	assert.Equal(t, before, m)
}

func TestMergeReply_MalformedBlockLeavesTextUnchanged(t *testing.T) {
	reply := `Try this.<memory>{"morningRoutine":["Cleanser",]}</memory>`
	before := domain.ChatMemory{AnalysisNotes: []string{"Acne (mild)"}}

	m, visible := MergeReply(reply, before, now)
	assert.Equal(t, reply, visible)
	assert.Equal(t, before, m)
}

func TestParseBlock_UsesLastBlock(t *testing.T) {
	reply := "Earlier you said <memory>{\"eveningRoutine\":[\"Old\"]}</memory> and now\n<memory>\n{\"eveningRoutine\":[\"Retinol Serum\"]}\n</memory>\n"

	u, visible, ok := ParseBlock(reply)
	require.True(t, ok)
	assert.Equal(t, []string{"Retinol Serum"}, u.EveningRoutine)
	assert.Nil(t, u.MorningRoutine)
	assert.Equal(t, `Earlier you said <memory>{"eveningRoutine":["Old"]}</memory> and now`, visible)
}

func TestParseBlock_MissingClosingTag(t *testing.T) {
	reply := `Hi <memory>{"morningRoutine":["x"]}`
	_, visible, ok := ParseBlock(reply)
	assert.False(t, ok)
	assert.Equal(t, reply, visible)
}

func TestApply_NilListsUntouched(t *testing.T) {
	m := domain.ChatMemory{
		MorningRoutineNames: []string{"Cleanser"},
		AnalysisNotes:       []string{"Dryness (mild)"},
	}
	out := Apply(m, Update{EveningRoutine: []string{"Night Cream"}}, now)

	assert.Equal(t, []string{"Cleanser"}, out.MorningRoutineNames)
	assert.Equal(t, []string{"Night Cream"}, out.EveningRoutineNames)
	assert.Equal(t, []string{"Dryness (mild)"}, out.AnalysisNotes)
}

func TestMergeList(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		incoming []string
		want     []string
	}{
		{"both empty", nil, nil, []string{}},
		{"append new", []string{"A"}, []string{"B"}, []string{"A", "B"}},
		{"trim and drop empty", []string{" A "}, []string{"", "  ", "B\n"}, []string{"A", "B"}},
		{"case-insensitive first wins", []string{"Retinol"}, []string{"RETINOL", "retinol"}, []string{"Retinol"}},
		{"near duplicates survive", []string{"Retinol Serum"}, []string{"Retinol serum at night"}, []string{"Retinol Serum", "Retinol serum at night"}},
		{"dedup within existing", []string{"a", "A"}, nil, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeList(tt.existing, tt.incoming))
		})
	}
}

func TestMergeList_CapKeepsFirstEntries(t *testing.T) {
	var existing, incoming []string
	for i := 0; i < 10; i++ {
		existing = append(existing, fmt.Sprintf("old-%d", i))
		incoming = append(incoming, fmt.Sprintf("new-%d", i))
	}

	got := MergeList(existing, incoming)
	require.Len(t, got, domain.MemoryCap)
	assert.Equal(t, "old-0", got[0])
	assert.Equal(t, "new-1", got[domain.MemoryCap-1])
}

// Over any sequence of merges no list exceeds the cap or holds two entries
// equal ignoring case.
func TestMergeReply_InvariantsAcrossManyMerges(t *testing.T) {
	m := domain.ChatMemory{}
	for i := 0; i < 40; i++ {
		reply := fmt.Sprintf(`ok<memory>{"morningRoutine":["Step %d","step %d","STEP %d"],"analysisNotes":["note %d"]}</memory>`, i, i%7, i%3, i%5)
		m, _ = MergeReply(reply, m, now)

		for _, list := range [][]string{m.MorningRoutineNames, m.EveningRoutineNames, m.WeeklyTreatmentNames, m.AnalysisNotes} {
			assert.LessOrEqual(t, len(list), domain.MemoryCap)
			seen := map[string]bool{}
			for _, s := range list {
				key := strings.ToLower(strings.TrimSpace(s))
				assert.False(t, seen[key], "duplicate %q", s)
				seen[key] = true
			}
		}
	}
}

func TestAbsorbRoutine(t *testing.T) {
	r := testutil.NewTestRoutine(
		[]string{"Gentle Cleanser", "SPF 50"},
		[]string{"Retinol Serum"},
		[]string{"Clay Mask"},
	)
	m := AbsorbRoutine(domain.ChatMemory{MorningRoutineNames: []string{"gentle cleanser"}}, r, now)

	assert.Equal(t, []string{"gentle cleanser", "SPF 50"}, m.MorningRoutineNames)
	assert.Equal(t, []string{"Retinol Serum"}, m.EveningRoutineNames)
	assert.Equal(t, []string{"Clay Mask"}, m.WeeklyTreatmentNames)
	assert.Equal(t, now, m.LastUpdated)

	assert.Equal(t, m, AbsorbRoutine(m, nil, now.Add(time.Hour)))
}

func TestAbsorbAnalysis(t *testing.T) {
	analyzed := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)
	a := &domain.SkinAnalysis{
		AnalyzedAt: analyzed,
		Conditions: []domain.Condition{
			{Name: "Acne", Severity: "moderate"},
			{Name: "Redness", Severity: "mild"},
			{Name: " ", Severity: "mild"},
			{Name: "Dryness"},
			{Name: "Hyperpigmentation", Severity: "mild"},
			{Name: "Fine Lines", Severity: "mild"},
			{Name: "Enlarged Pores", Severity: "mild"},
		},
	}

	m := AbsorbAnalysis(domain.ChatMemory{}, a, now)
	assert.Equal(t, []string{
		"Acne (moderate)", "Redness (mild)", "Dryness", "Hyperpigmentation (mild)", "Fine Lines (mild)",
	}, m.AnalysisNotes)
	require.NotNil(t, m.LastAnalysisDate)
	assert.Equal(t, analyzed, *m.LastAnalysisDate)
}

func TestAbsorbAnalysis_ZeroDateUsesNow(t *testing.T) {
	m := AbsorbAnalysis(domain.ChatMemory{}, &domain.SkinAnalysis{}, now)
	require.NotNil(t, m.LastAnalysisDate)
	assert.Equal(t, now, *m.LastAnalysisDate)
	assert.Empty(t, m.AnalysisNotes)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "", Render(domain.ChatMemory{}))

	last := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)
	out := Render(domain.ChatMemory{
		MorningRoutineNames: []string{"Cleanser", "SPF 50"},
		AnalysisNotes:       []string{"Acne (mild)"},
		LastAnalysisDate:    &last,
	})
	assert.Equal(t, "What you remember about this user:\n"+
		"- Morning routine: Cleanser, SPF 50\n"+
		"- Skin analysis notes: Acne (mild)\n"+
		"- Last analysis: 2026-03-30", out)
}
