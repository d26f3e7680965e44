package domain

import "time"

// RoutineStep is one instruction in a skincare routine. Name doubles as the
// matching key for de-duplication and change-log diffs.
type RoutineStep struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Category      StepCategory `json:"category"`
	Duration      Seconds      `json:"duration"`
	Frequency     Frequency    `json:"frequency"`
	StepTime      TimeOfDay    `json:"stepTime"`
	ConflictsWith []string     `json:"conflictsWith"`
	RequiresSPF   bool         `json:"requiresSPF"`
	Tips          []string     `json:"tips"`
}

// ProgressMetrics tracks the model's view of skin health over time.
type ProgressMetrics struct {
	SkinHealthScore  float64     `json:"skinHealthScore"`
	ImprovementAreas []string    `json:"improvementAreas"`
	NextCheckIn      CheckInDate `json:"nextCheckIn"`
	Goals            []string    `json:"goals"`
}

// Routine is the reconciled morning/evening/weekly plan. It is superseded
// wholesale on every successful regeneration.
type Routine struct {
	Morning                []RoutineStep   `json:"morningRoutine"`
	Evening                []RoutineStep   `json:"eveningRoutine"`
	Weekly                 []RoutineStep   `json:"weeklyTreatments"`
	LifestyleTips          []string        `json:"lifestyleTips"`
	ProductRecommendations []Product       `json:"productRecommendations"`
	ProgressTracking       ProgressMetrics `json:"progressTracking"`
}

// Bucket identifies one of the three step lists of a Routine.
type Bucket string

const (
	BucketMorning Bucket = "Morning"
	BucketEvening Bucket = "Evening"
	BucketWeekly  Bucket = "Weekly"
)

// Buckets lists the routine buckets in display order.
var Buckets = []Bucket{BucketMorning, BucketEvening, BucketWeekly}

// Steps returns the step list stored under b.
func (r *Routine) Steps(b Bucket) []RoutineStep {
	if r == nil {
		return nil
	}
	switch b {
	case BucketMorning:
		return r.Morning
	case BucketEvening:
		return r.Evening
	case BucketWeekly:
		return r.Weekly
	default:
		return nil
	}
}

// SetSteps replaces the step list stored under b.
func (r *Routine) SetSteps(b Bucket, steps []RoutineStep) {
	switch b {
	case BucketMorning:
		r.Morning = steps
	case BucketEvening:
		r.Evening = steps
	case BucketWeekly:
		r.Weekly = steps
	}
}

// StepCount returns the total number of steps across all buckets.
func (r *Routine) StepCount() int {
	if r == nil {
		return 0
	}
	return len(r.Morning) + len(r.Evening) + len(r.Weekly)
}

// Clone returns a deep copy of the routine.
func (r *Routine) Clone() *Routine {
	if r == nil {
		return nil
	}
	out := *r
	out.Morning = cloneSteps(r.Morning)
	out.Evening = cloneSteps(r.Evening)
	out.Weekly = cloneSteps(r.Weekly)
	out.LifestyleTips = cloneStrings(r.LifestyleTips)
	if r.ProductRecommendations != nil {
		out.ProductRecommendations = make([]Product, len(r.ProductRecommendations))
		for i, p := range r.ProductRecommendations {
			p.Ingredients = cloneStrings(p.Ingredients)
			out.ProductRecommendations[i] = p
		}
	}
	out.ProgressTracking.ImprovementAreas = cloneStrings(r.ProgressTracking.ImprovementAreas)
	out.ProgressTracking.Goals = cloneStrings(r.ProgressTracking.Goals)
	return &out
}

// Clone returns a deep copy of the step.
func (s RoutineStep) Clone() RoutineStep {
	s.ConflictsWith = cloneStrings(s.ConflictsWith)
	s.Tips = cloneStrings(s.Tips)
	return s
}

func cloneSteps(in []RoutineStep) []RoutineStep {
	if in == nil {
		return nil
	}
	out := make([]RoutineStep, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Product is a catalog item attached to a routine. It is passed through
// from the catalog untouched.
type Product struct {
	Name           string   `json:"name"`
	Brand          string   `json:"brand,omitempty"`
	ImageURL       string   `json:"imageURL,omitempty"`
	DestinationURL string   `json:"destinationURL,omitempty"`
	Ingredients    []string `json:"ingredients,omitempty"`
}

// Condition is one finding of a skin analysis.
type Condition struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

// SkinAnalysis is the structured result of a selfie analysis.
type SkinAnalysis struct {
	SkinAge         int         `json:"skinAge"`
	SkinHealthScore float64     `json:"skinHealthScore"`
	SkinType        string      `json:"skinType"`
	Conditions      []Condition `json:"conditions"`
	Summary         string      `json:"summary"`
	AnalyzedAt      time.Time   `json:"analyzedAt"`
}
