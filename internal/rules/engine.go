// Package rules applies the deterministic safety pass over a decoded
// routine: no sunscreen at night, steps ordered by category, conflicting
// actives removed, and an optional evening retinoid.
package rules

import (
	"sort"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/ingredient"
	"github.com/google/uuid"
)

// unmappedPriority sorts categories outside the priority table last.
const unmappedPriority = 99

var categoryPriority = map[domain.StepCategory]int{
	domain.CategoryCleanser:    0,
	domain.CategoryToner:       1,
	domain.CategorySerum:       2,
	domain.CategoryExfoliant:   3,
	domain.CategoryBHA:         3,
	domain.CategoryAHA:         3,
	domain.CategoryTreatment:   4,
	domain.CategoryMoisturizer: 5,
	domain.CategorySunscreen:   6,
	domain.CategoryMask:        7,
	domain.CategoryClay:        7,
}

// CategoryPriority returns the application order of a category (lower first).
func CategoryPriority(c domain.StepCategory) int {
	if p, ok := categoryPriority[c.Normalize()]; ok {
		return p
	}
	return unmappedPriority
}

// Signal carries the skin-age estimate driving the retinoid heuristic.
// A nil SkinAge disables it.
type Signal struct {
	SkinAge          *int
	ChronologicalAge *int
}

// SignalFromAnalysis derives a Signal from a skin analysis. A nil analysis
// or a non-positive skin age yields an empty signal.
func SignalFromAnalysis(a *domain.SkinAnalysis) Signal {
	if a == nil || a.SkinAge <= 0 {
		return Signal{}
	}
	age := a.SkinAge
	return Signal{SkinAge: &age}
}

// DropReason explains why a step was removed.
type DropReason string

const (
	DropRequiresSPF DropReason = "requires_spf_at_night"
	DropConflict    DropReason = "ingredient_conflict"
)

// DroppedStep records a step removed by the engine.
type DroppedStep struct {
	Bucket domain.Bucket
	Name   string
	Reason DropReason
}

// Report summarizes what a rules pass changed.
type Report struct {
	Dropped          []DroppedStep
	InjectedRetinoid bool
}

// Engine applies the rules with a fixed Config.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// ApplyRules runs the engine with the default configuration.
func ApplyRules(r *domain.Routine, sig Signal) *domain.Routine {
	return NewEngine(DefaultConfig()).Apply(r, sig)
}

// Apply returns the adjusted copy of r; the input is not modified. Equal
// inputs give equal outputs and applying the result again changes nothing.
func (e *Engine) Apply(r *domain.Routine, sig Signal) *domain.Routine {
	out, _ := e.ApplyWithReport(r, sig)
	return out
}

// ApplyWithReport is Apply plus a summary of removed and injected steps.
func (e *Engine) ApplyWithReport(r *domain.Routine, sig Signal) (*domain.Routine, Report) {
	var rep Report
	if r == nil {
		return nil, rep
	}
	out := r.Clone()

	for _, b := range domain.Buckets {
		steps := out.Steps(b)
		if b == domain.BucketEvening {
			steps = dropDaytime(steps, &rep)
		}
		sortByPriority(steps)
		steps = resolveConflicts(b, steps, &rep)

		if b == domain.BucketEvening && e.retinoidWarranted(sig) && !hasRetinoid(steps) {
			steps = append(steps, RetinoidStep())
			sortByPriority(steps)
			// The synthesized step can itself conflict with a surviving
			// exfoliant or vitamin C step, so the walk runs again.
			steps = resolveConflicts(b, steps, &rep)
			rep.InjectedRetinoid = hasRetinoid(steps)
		}
		out.SetSteps(b, steps)
	}
	return out, rep
}

// SkinAgeGap returns skin age minus chronological age, and false when the
// signal carries no skin age.
func (e *Engine) SkinAgeGap(sig Signal) (int, bool) {
	if sig.SkinAge == nil {
		return 0, false
	}
	chrono := domain.IntFromPtrWithDefault(e.cfg.DefaultChronologicalAge, sig.ChronologicalAge)
	return *sig.SkinAge - chrono, true
}

func (e *Engine) retinoidWarranted(sig Signal) bool {
	gap, ok := e.SkinAgeGap(sig)
	return ok && gap >= e.cfg.RetinoidGapThreshold
}

func dropDaytime(steps []domain.RoutineStep, rep *Report) []domain.RoutineStep {
	kept := steps[:0:0]
	for _, s := range steps {
		if s.RequiresSPF || s.Category.Normalize() == domain.CategorySunscreen {
			rep.Dropped = append(rep.Dropped, DroppedStep{domain.BucketEvening, s.Name, DropRequiresSPF})
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func sortByPriority(steps []domain.RoutineStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return CategoryPriority(steps[i].Category) < CategoryPriority(steps[j].Category)
	})
}

// resolveConflicts walks steps in order, dropping any step whose declared
// conflicts intersect the tags of the steps kept before it.
func resolveConflicts(b domain.Bucket, steps []domain.RoutineStep, rep *Report) []domain.RoutineStep {
	active := make(map[ingredient.Tag]bool)
	kept := steps[:0:0]
	for _, s := range steps {
		if intersects(ingredient.ConflictTags(s.ConflictsWith), active) {
			rep.Dropped = append(rep.Dropped, DroppedStep{b, s.Name, DropConflict})
			continue
		}
		kept = append(kept, s)
		for _, t := range ingredient.InferTags(s.Name) {
			active[t] = true
		}
	}
	return kept
}

func intersects(a, b map[ingredient.Tag]bool) bool {
	for t := range a {
		if b[t] {
			return true
		}
	}
	return false
}

func hasRetinoid(steps []domain.RoutineStep) bool {
	for _, s := range steps {
		for _, t := range ingredient.InferTags(s.Name) {
			if t == ingredient.TagRetinoid {
				return true
			}
		}
	}
	return false
}

var retinoidStepID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("dermaloop/rules/evening-retinoid")).String()

// RetinoidStep is the conservative evening retinoid added when the skin-age
// gap warrants one.
func RetinoidStep() domain.RoutineStep {
	return domain.RoutineStep{
		ID:          retinoidStepID,
		Name:        "Low-Strength Retinol",
		Description: "Apply a pea-sized amount of 0.25% retinol to dry skin before moisturizer.",
		Category:    domain.CategoryTreatment,
		Duration:    60,
		Frequency:   domain.FrequencyNightly,
		StepTime:    domain.TimeEvening,
		ConflictsWith: []string{
			string(ingredient.TagStrongExfoliant),
			string(ingredient.TagVitaminC),
		},
		Tips: []string{
			"Start 2-3 nights a week and increase as tolerated.",
			"Skip on nights you exfoliate.",
			"Wear sunscreen the following morning.",
		},
	}
}
