// Package app holds the session controller: the single owner of the current
// routine, analysis and chat memory for one user.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/dermaloop/internal/db"
	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/intelligence"
	"github.com/alexanderramin/dermaloop/internal/memory"
	"github.com/alexanderramin/dermaloop/internal/repository"
	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when an analysis or regeneration is already running.
	ErrBusy = errors.New("another regeneration is in progress")

	// ErrLLMDisabled is returned by operations that need the language model
	// when no gateway is configured.
	ErrLLMDisabled = errors.New("language model is disabled")
)

// Session serialises regenerations with a busy flag and keeps the
// authoritative in-memory copy of the user's state. Persisted copies are
// only written after an operation fully succeeds.
type Session struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time

	busy   atomic.Bool
	chatMu sync.Mutex

	mu       sync.RWMutex
	routine  *domain.Routine
	analysis *domain.SkinAnalysis
	memory   domain.ChatMemory
}

// NewSession creates a Session. Call Restore to load persisted state.
func NewSession(deps Deps) *Session {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Session{deps: deps, log: log.Named("session"), now: now}
}

// Restore loads the cached routine, analysis and memory. Missing documents
// leave the corresponding field empty.
func (s *Session) Restore(ctx context.Context) error {
	routine, err := s.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restoring routine: %w", err)
	}
	analysis, err := s.deps.Store.LoadAnalysis(ctx)
	if err != nil {
		return fmt.Errorf("restoring analysis: %w", err)
	}

	var mem domain.ChatMemory
	err = s.deps.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		mem, err = memoryStore(tx).Load(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("restoring memory: %w", err)
	}

	s.mu.Lock()
	s.routine, s.analysis, s.memory = routine, analysis, mem
	s.mu.Unlock()

	s.log.Debug("session restored",
		zap.Bool("routine", routine != nil),
		zap.Bool("analysis", analysis != nil),
		zap.Int("memory_notes", len(mem.AnalysisNotes)),
	)
	return nil
}

// Routine returns a copy of the current routine, or nil.
func (s *Session) Routine() *domain.Routine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routine.Clone()
}

// Analysis returns a copy of the latest analysis, or nil.
func (s *Session) Analysis() *domain.SkinAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analysis == nil {
		return nil
	}
	a := *s.analysis
	a.Conditions = append([]domain.Condition(nil), s.analysis.Conditions...)
	return &a
}

// Memory returns the accumulated chat memory.
func (s *Session) Memory() domain.ChatMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memory
}

// Busy reports whether an analysis or regeneration is running.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) release() {
	s.busy.Store(false)
}

// Analyze grades a selfie, stores the result and folds its findings into
// the chat memory.
func (s *Session) Analyze(ctx context.Context, image []byte) (*domain.SkinAnalysis, error) {
	if s.deps.Analyzer == nil {
		return nil, ErrLLMDisabled
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	a, err := s.deps.Analyzer.Analyze(ctx, image)
	if err != nil {
		return nil, err
	}

	// Memory is merged against the live copy under chatMu so a chat turn that
	// finished meanwhile is not overwritten.
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	prev := s.Memory()
	mem := memory.AbsorbAnalysis(prev, a, s.now())
	if err := s.saveMemory(ctx, mem); err != nil {
		return nil, err
	}
	// The analysis document is the commit point.
	if err := s.deps.Store.SaveAnalysis(ctx, a); err != nil {
		s.restoreMemory(ctx, prev)
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	s.mu.Lock()
	s.analysis, s.memory = a, mem
	s.mu.Unlock()
	s.log.Info("analysis stored", zap.Int("skin_age", a.SkinAge), zap.Int("conditions", len(a.Conditions)))
	return a, nil
}

// Regenerate asks the model for a new routine from the current analysis and
// memory. On any failure the previous routine stays in force, both in memory
// and in the cache. The new step names are merged into the memory as it is
// when the routine arrives, not as it was when the request started.
func (s *Session) Regenerate(ctx context.Context) (*intelligence.RegenerateResult, error) {
	if s.deps.Routines == nil {
		return nil, ErrLLMDisabled
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	res, err := s.deps.Routines.Regenerate(ctx, intelligence.RegenerateRequest{
		Previous: s.Routine(),
		Analysis: s.Analysis(),
		Memory:   s.Memory(),
	})
	if err != nil {
		s.log.Warn("regeneration failed, keeping cached routine", zap.Error(err))
		return nil, err
	}

	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	prev := s.Memory()
	mem := memory.AbsorbRoutine(prev, res.Routine, s.now())
	if err := s.saveMemory(ctx, mem); err != nil {
		return nil, err
	}
	// The routine document is the commit point: until it is written the
	// previous routine stays authoritative on disk.
	if err := s.deps.Store.Save(ctx, res.Routine); err != nil {
		s.restoreMemory(ctx, prev)
		return nil, fmt.Errorf("saving routine: %w", err)
	}
	res.Memory = mem

	s.mu.Lock()
	s.routine, s.memory = res.Routine.Clone(), mem
	s.mu.Unlock()
	s.log.Info("routine regenerated", zap.String("tier", string(res.Tier)), zap.Strings("changes", res.Changes))
	return res, nil
}

// Chat sends one user message. The log entries and merged memory are
// committed in one transaction.
func (s *Session) Chat(ctx context.Context, message string) (*intelligence.ChatResult, error) {
	if s.deps.Chat == nil {
		return nil, ErrLLMDisabled
	}
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	history, err := s.History(ctx, intelligence.HistoryLimit)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Chat.Reply(ctx, intelligence.ChatRequest{
		History: history,
		Memory:  s.Memory(),
		Message: message,
	})
	if err != nil {
		return nil, err
	}

	err = s.deps.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		chatLog := repository.NewSQLiteChatLogRepo(tx)
		if err := chatLog.Append(ctx, res.Messages...); err != nil {
			return err
		}
		if err := chatLog.Trim(ctx, intelligence.HistoryLimit); err != nil {
			return err
		}
		if !res.MemoryUpdate {
			return nil
		}
		return memoryStore(tx).Save(ctx, res.Memory)
	})
	if err != nil {
		return nil, fmt.Errorf("saving chat turn: %w", err)
	}

	if res.MemoryUpdate {
		s.mu.Lock()
		s.memory = res.Memory
		s.mu.Unlock()
	}
	return res, nil
}

// History returns up to limit of the newest chat messages, oldest first.
func (s *Session) History(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	err := s.deps.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		msgs, err = repository.NewSQLiteChatLogRepo(tx).ListRecent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	return msgs, nil
}

// ClearChat removes the conversation log. Memory is kept.
func (s *Session) ClearChat(ctx context.Context) error {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	return s.deps.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteChatLogRepo(tx).Clear(ctx)
	})
}

func (s *Session) saveMemory(ctx context.Context, m domain.ChatMemory) error {
	err := s.deps.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return memoryStore(tx).Save(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("saving memory: %w", err)
	}
	return nil
}

// restoreMemory puts back the memory written before a failed commit.
func (s *Session) restoreMemory(ctx context.Context, m domain.ChatMemory) {
	if err := s.saveMemory(ctx, m); err != nil {
		s.log.Warn("restoring memory after failed save", zap.Error(err))
	}
}

func memoryStore(tx db.DBTX) *memory.Store {
	return memory.NewStore(repository.NewSQLiteKVStore(tx))
}
