package intelligence

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/dermaloop/internal/cache"
	"github.com/alexanderramin/dermaloop/internal/catalog"
	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/llm"
	"github.com/alexanderramin/dermaloop/internal/memory"
	"github.com/alexanderramin/dermaloop/internal/reconcile"
	"github.com/alexanderramin/dermaloop/internal/rules"
	"go.uber.org/zap"
)

// DefaultProductLimit is how many catalog products a routine carries.
const DefaultProductLimit = 4

// RegenerateRequest is the state a regeneration starts from.
type RegenerateRequest struct {
	Previous *domain.Routine
	Analysis *domain.SkinAnalysis
	Memory   domain.ChatMemory
}

// RegenerateResult is a reconciled, rule-checked routine ready to be saved.
type RegenerateResult struct {
	Routine *domain.Routine
	Changes []string
	Memory  domain.ChatMemory
	Tier    reconcile.Tier
	Report  rules.Report
}

// RoutineService produces a new routine from the language model.
type RoutineService interface {
	Regenerate(ctx context.Context, req RegenerateRequest) (*RegenerateResult, error)
}

type routineService struct {
	gateway      llm.Gateway
	reconciler   *reconcile.Reconciler
	engine       *rules.Engine
	products     catalog.Searcher
	productLimit int
	now          func() time.Time
	log          *zap.Logger
}

// RoutineServiceOption customises a RoutineService.
type RoutineServiceOption func(*routineService)

// WithProducts attaches catalog recommendations to generated routines.
func WithProducts(s catalog.Searcher, limit int) RoutineServiceOption {
	return func(rs *routineService) {
		rs.products = s
		rs.productLimit = limit
	}
}

// WithClock overrides the time source used for memory timestamps.
func WithClock(now func() time.Time) RoutineServiceOption {
	return func(rs *routineService) { rs.now = now }
}

// NewRoutineService creates a RoutineService. The strict retry tier of the
// reconciler is bound to the same gateway.
func NewRoutineService(gateway llm.Gateway, engine *rules.Engine, log *zap.Logger, opts ...RoutineServiceOption) RoutineService {
	if log == nil {
		log = zap.NewNop()
	}
	if engine == nil {
		engine = rules.NewEngine(rules.DefaultConfig())
	}
	s := &routineService{
		gateway:      gateway,
		reconciler:   reconcile.New(log),
		engine:       engine,
		productLimit: DefaultProductLimit,
		now:          time.Now,
		log:          log.Named("routine"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Regenerate never touches persistent state. A returned error means the
// caller's current routine stays in force.
func (s *routineService) Regenerate(ctx context.Context, req RegenerateRequest) (*RegenerateResult, error) {
	messages := []llm.Message{
		llm.TextMessage(llm.RoleSystem, routineSystemPrompt),
		llm.TextMessage(llm.RoleUser, buildRoutineUserPrompt(req.Analysis, req.Memory)),
	}

	resp, err := s.gateway.Complete(ctx, llm.CompletionRequest{
		Task:     llm.TaskRoutine,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("llm routine failed: %w", err)
	}
	if resp.Truncated() {
		s.log.Warn("routine reply hit token limit", zap.Int("len", len(resp.Text)))
	}

	retry := func(ctx context.Context) (string, error) {
		strict := append(append([]llm.Message{}, messages...),
			llm.TextMessage(llm.RoleAssistant, resp.Text),
			llm.TextMessage(llm.RoleUser, routineStrictPrompt),
		)
		r, err := s.gateway.Complete(ctx, llm.CompletionRequest{
			Task:     llm.TaskRoutineStrict,
			Messages: strict,
		})
		if err != nil {
			return "", err
		}
		return r.Text, nil
	}

	routine, tier, err := s.reconciler.Reconcile(ctx, resp.Text, retry)
	if err != nil {
		return nil, err
	}

	routine, report := s.engine.ApplyWithReport(routine, rules.SignalFromAnalysis(req.Analysis))
	for _, d := range report.Dropped {
		s.log.Info("step dropped",
			zap.String("bucket", string(d.Bucket)),
			zap.String("name", d.Name),
			zap.String("reason", string(d.Reason)),
		)
	}

	if s.products != nil && s.productLimit > 0 {
		if picks := catalog.Recommend(ctx, s.products, routine, s.productLimit, s.log); len(picks) > 0 {
			routine.ProductRecommendations = picks
		}
	}

	return &RegenerateResult{
		Routine: routine,
		Changes: cache.Diff(req.Previous, routine),
		Memory:  memory.AbsorbRoutine(req.Memory, routine, s.now()),
		Tier:    tier,
		Report:  report,
	}, nil
}
