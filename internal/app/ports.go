package app

import (
	"context"
	"time"

	"github.com/alexanderramin/dermaloop/internal/db"
	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/intelligence"
	"go.uber.org/zap"
)

// RoutineStore persists the current routine and the latest analysis.
// cache.RoutineCache satisfies it.
type RoutineStore interface {
	Save(ctx context.Context, r *domain.Routine) error
	Load(ctx context.Context) (*domain.Routine, error)
	SaveAnalysis(ctx context.Context, a *domain.SkinAnalysis) error
	LoadAnalysis(ctx context.Context) (*domain.SkinAnalysis, error)
}

// Deps wires a Session. The language-model services may be nil when the
// gateway is disabled; the operations that need them then fail with
// ErrLLMDisabled.
type Deps struct {
	Routines intelligence.RoutineService
	Analyzer intelligence.AnalysisService
	Chat     intelligence.ChatService

	// Store holds the routine and analysis documents. The chat log and
	// memory live in the database behind UoW and are written together.
	Store RoutineStore
	UoW   db.UnitOfWork

	Now func() time.Time
	Log *zap.Logger
}
