package memory

import (
	"context"
	"testing"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/repository"
	"github.com/alexanderramin/dermaloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadEmpty(t *testing.T) {
	s := NewStore(repository.NewSQLiteKVStore(testutil.NewTestDB(t)))

	m, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewStore(repository.NewFileKVStore(t.TempDir()))
	ctx := context.Background()

	want, _ := MergeReply(cleanserReply, domain.ChatMemory{}, now)
	want = AbsorbAnalysis(want, &domain.SkinAnalysis{
		Conditions: []domain.Condition{{Name: "Acne", Severity: "mild"}},
		AnalyzedAt: now,
	}, now)
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.MorningRoutineNames, got.MorningRoutineNames)
	assert.Equal(t, want.AnalysisNotes, got.AnalysisNotes)
	assert.True(t, want.LastUpdated.Equal(got.LastUpdated))
	require.NotNil(t, got.LastAnalysisDate)
	assert.True(t, now.Equal(*got.LastAnalysisDate))
}

func TestStore_CorruptDocument(t *testing.T) {
	kv := repository.NewFileKVStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, Key, []byte("{not json")))

	_, err := NewStore(kv).Load(ctx)
	assert.Error(t, err)
}
