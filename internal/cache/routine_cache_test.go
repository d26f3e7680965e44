package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/repository"
	"github.com/alexanderramin/dermaloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Put(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Delete(context.Context, string) error        { return f.err }

func TestRoutineCache_LoadEmpty(t *testing.T) {
	c := NewRoutineCache(repository.NewSQLiteKVStore(testutil.NewTestDB(t)))

	r, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)

	a, err := c.LoadAnalysis(context.Background())
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestRoutineCache_RoundTrip(t *testing.T) {
	for name, kv := range map[string]repository.KVStore{
		"sqlite": repository.NewSQLiteKVStore(testutil.NewTestDB(t)),
		"file":   repository.NewFileKVStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			c := NewRoutineCache(kv)
			ctx := context.Background()

			want := testutil.NewTestRoutine([]string{"Cleanser", "SPF 50"}, []string{"Retinol"}, []string{"Clay Mask"})
			want.Morning[1].RequiresSPF = true
			want.Morning[1].Tips = []string{"Reapply at noon"}
			want.Evening[0].ConflictsWith = []string{"strong_exfoliant"}
			want.LifestyleTips = []string{"Sleep 8 hours"}
			want.ProductRecommendations = []domain.Product{{Name: "CeraVe Foaming Cleanser", Brand: "CeraVe"}}
			want.ProgressTracking.Goals = []string{"Clear skin"}
			want.ProgressTracking.NextCheckIn = domain.CheckInDate{Time: time.Date(2024, 1, 15, 10, 20, 30, 750_000_000, time.UTC)}

			require.NoError(t, c.Save(ctx, want))
			got, err := c.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, want.Morning, got.Morning)
			assert.Equal(t, want.Evening, got.Evening)
			assert.Equal(t, want.Weekly, got.Weekly)
			assert.Equal(t, want.LifestyleTips, got.LifestyleTips)
			assert.Equal(t, want.ProductRecommendations, got.ProductRecommendations)
			assert.Equal(t, want.ProgressTracking.SkinHealthScore, got.ProgressTracking.SkinHealthScore)
			assert.True(t, want.ProgressTracking.NextCheckIn.Equal(got.ProgressTracking.NextCheckIn.Time))
			assert.Equal(t, []string{NoChangeLine}, Diff(want, got))
		})
	}
}

func TestRoutineCache_SaveOverwrites(t *testing.T) {
	c := NewRoutineCache(repository.NewFileKVStore(t.TempDir()))
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, testutil.NewTestRoutine([]string{"Old"}, nil, nil)))
	require.NoError(t, c.Save(ctx, testutil.NewTestRoutine([]string{"New"}, nil, nil)))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Morning, 1)
	assert.Equal(t, "New", got.Morning[0].Name)
}

func TestRoutineCache_AnalysisRoundTrip(t *testing.T) {
	c := NewRoutineCache(repository.NewSQLiteKVStore(testutil.NewTestDB(t)))
	ctx := context.Background()

	want := &domain.SkinAnalysis{
		SkinAge:         34,
		SkinHealthScore: 0.64,
		SkinType:        "combination",
		Conditions:      []domain.Condition{{Name: "Acne", Severity: "mild"}},
		Summary:         "Mild congestion on the T-zone.",
		AnalyzedAt:      time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SaveAnalysis(ctx, want))

	got, err := c.LoadAnalysis(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRoutineCache_NilRejected(t *testing.T) {
	c := NewRoutineCache(repository.NewFileKVStore(t.TempDir()))
	assert.Error(t, c.Save(context.Background(), nil))
	assert.Error(t, c.SaveAnalysis(context.Background(), nil))
}

func TestRoutineCache_StorageErrors(t *testing.T) {
	boom := errors.New("disk full")
	c := NewRoutineCache(failingKV{err: boom})

	assert.ErrorIs(t, c.Save(context.Background(), &domain.Routine{}), boom)
	_, err := c.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRoutineCache_CorruptDocument(t *testing.T) {
	kv := repository.NewFileKVStore(t.TempDir())
	require.NoError(t, kv.Put(context.Background(), RoutineKey, []byte(`{"morningRoutine":[`)))

	_, err := NewRoutineCache(kv).Load(context.Background())
	assert.Error(t, err)
}
