package testutil

import (
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/google/uuid"
)

// StepOption customizes a step built by NewTestStep.
type StepOption func(*domain.RoutineStep)

func WithCategory(c domain.StepCategory) StepOption {
	return func(s *domain.RoutineStep) {
		s.Category = c
	}
}

func WithConflicts(tags ...string) StepOption {
	return func(s *domain.RoutineStep) {
		s.ConflictsWith = tags
	}
}

func WithRequiresSPF() StepOption {
	return func(s *domain.RoutineStep) {
		s.RequiresSPF = true
	}
}

func WithFrequency(f domain.Frequency) StepOption {
	return func(s *domain.RoutineStep) {
		s.Frequency = f
	}
}

// NewTestStep builds a daily morning step with a random id.
func NewTestStep(name string, opts ...StepOption) domain.RoutineStep {
	s := domain.RoutineStep{
		ID:        uuid.New().String(),
		Name:      name,
		Category:  domain.CategoryOther,
		Duration:  60,
		Frequency: domain.FrequencyDaily,
		StepTime:  domain.TimeMorning,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewTestRoutine builds a routine from step names, one slice per bucket.
// Categories are left as other; use the returned value's fields to tweak.
func NewTestRoutine(morning, evening, weekly []string) *domain.Routine {
	r := &domain.Routine{
		ProgressTracking: domain.ProgressMetrics{
			SkinHealthScore: 0.7,
			NextCheckIn:     domain.CheckInDate{Time: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)},
		},
	}
	for _, n := range morning {
		r.Morning = append(r.Morning, NewTestStep(n))
	}
	for _, n := range evening {
		r.Evening = append(r.Evening, NewTestStep(n,
			WithFrequency(domain.FrequencyNightly),
			func(s *domain.RoutineStep) { s.StepTime = domain.TimeEvening },
		))
	}
	for _, n := range weekly {
		r.Weekly = append(r.Weekly, NewTestStep(n,
			WithFrequency(domain.FrequencyWeekly),
			func(s *domain.RoutineStep) { s.StepTime = domain.TimeAnytime },
		))
	}
	return r
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
