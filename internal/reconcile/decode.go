package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/ingredient"
	"github.com/google/uuid"
)

// Routine size limits applied after every successful decode.
const (
	MaxMorningSteps = 4
	MaxEveningSteps = 4
	MaxWeeklySteps  = 2
)

var errEmptyRoutine = errors.New("routine has no steps")

// stepNamespace seeds the name-derived ids of steps that arrive without one.
var stepNamespace = uuid.MustParse("6f1d8e0a-3c2b-4b8e-9a51-2d7c4f0e9b13")

// DecodeRoutine performs the typed decode of a routine JSON document and
// normalizes the result. A document that decodes but carries no steps is
// rejected so that later tiers get a chance.
func DecodeRoutine(s string) (*domain.Routine, error) {
	var r domain.Routine
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("typed decode: %w", err)
	}
	Normalize(&r)
	if r.StepCount() == 0 {
		return nil, errEmptyRoutine
	}
	return &r, nil
}

// Normalize makes a decoded routine internally consistent: nameless steps
// are dropped, names are trimmed and de-duplicated per bucket, every step
// gets a category, a frequency, a bucket-consistent time of day and an id,
// and the health score is brought into [0,1].
func Normalize(r *domain.Routine) {
	for _, b := range domain.Buckets {
		r.SetSteps(b, normalizeSteps(b, r.Steps(b)))
	}
	r.LifestyleTips = compactStrings(r.LifestyleTips)

	score := r.ProgressTracking.SkinHealthScore
	if score > 1 && score <= 100 {
		score /= 100
	}
	switch {
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	r.ProgressTracking.SkinHealthScore = score
}

func normalizeSteps(b domain.Bucket, steps []domain.RoutineStep) []domain.RoutineStep {
	if len(steps) == 0 {
		return nil
	}
	out := make([]domain.RoutineStep, 0, len(steps))
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		s.Name = strings.TrimSpace(s.Name)
		key := strings.ToLower(s.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		s.Category = s.Category.Normalize()
		if s.Category == "" {
			s.Category = ingredient.InferCategory(s.Name)
		}
		s.Frequency = domain.Frequency(strings.ToLower(strings.TrimSpace(string(s.Frequency))))
		if !domain.ValidFrequencies[s.Frequency] {
			s.Frequency = defaultFrequency(b)
		}
		s.StepTime = bucketTime(b, s.StepTime)
		if s.Category == domain.CategorySunscreen {
			s.RequiresSPF = true
		}
		if strings.TrimSpace(s.ID) == "" {
			s.ID = stepID(b, s.Name)
		}
		s.ConflictsWith = compactStrings(s.ConflictsWith)
		s.Tips = compactStrings(s.Tips)
		out = append(out, s)
	}
	return out
}

// bucketTime returns the time of day a step stored under b must carry.
// Weekly steps keep a declared morning/evening preference.
func bucketTime(b domain.Bucket, declared domain.TimeOfDay) domain.TimeOfDay {
	switch b {
	case domain.BucketMorning:
		return domain.TimeMorning
	case domain.BucketEvening:
		return domain.TimeEvening
	default:
		if tod, ok := domain.ParseTimeOfDay(string(declared)); ok {
			return tod
		}
		return domain.TimeAnytime
	}
}

func defaultFrequency(b domain.Bucket) domain.Frequency {
	switch b {
	case domain.BucketEvening:
		return domain.FrequencyNightly
	case domain.BucketWeekly:
		return domain.FrequencyWeekly
	default:
		return domain.FrequencyDaily
	}
}

func stepID(b domain.Bucket, name string) string {
	return uuid.NewSHA1(stepNamespace, []byte(string(b)+"/"+strings.ToLower(name))).String()
}

// Clamp truncates each bucket to its size limit, preserving order.
func Clamp(r *domain.Routine) {
	if len(r.Morning) > MaxMorningSteps {
		r.Morning = r.Morning[:MaxMorningSteps]
	}
	if len(r.Evening) > MaxEveningSteps {
		r.Evening = r.Evening[:MaxEveningSteps]
	}
	if len(r.Weekly) > MaxWeeklySteps {
		r.Weekly = r.Weekly[:MaxWeeklySteps]
	}
}

// StepFromName synthesizes a minimal step for bucket b when only a display
// name is known.
func StepFromName(b domain.Bucket, name string) domain.RoutineStep {
	name = strings.TrimSpace(name)
	category := ingredient.InferCategory(name)
	return domain.RoutineStep{
		ID:          stepID(b, name),
		Name:        name,
		Category:    category,
		Frequency:   defaultFrequency(b),
		StepTime:    bucketTime(b, ""),
		RequiresSPF: category == domain.CategorySunscreen,
	}
}

func compactStrings(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
