package reconcile

import (
	"errors"
	"regexp"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/ingredient"
	"github.com/tidwall/gjson"
)

var (
	errNotJSON     = errors.New("not a json document")
	errNoStepNames = errors.New("no step names found")
	errNoBullets   = errors.New("no bullet lines found")
)

var bucketKeys = []struct {
	bucket domain.Bucket
	key    string
}{
	{domain.BucketMorning, "morningRoutine"},
	{domain.BucketEvening, "eveningRoutine"},
	{domain.BucketWeekly, "weeklyTreatments"},
}

// RoutineFromNames walks a JSON document without a schema and builds a
// minimal routine from whatever step names it can find under the bucket
// keys or the legacy flat "recommendations" array.
func RoutineFromNames(s string) (*domain.Routine, error) {
	if !gjson.Valid(s) {
		return nil, errNotJSON
	}
	root := gjson.Parse(s)

	r := &domain.Routine{}
	for _, bk := range bucketKeys {
		var steps []domain.RoutineStep
		root.Get(bk.key).ForEach(func(_, item gjson.Result) bool {
			if name := itemName(item); name != "" {
				steps = append(steps, StepFromName(bk.bucket, name))
			}
			return true
		})
		r.SetSteps(bk.bucket, steps)
	}

	root.Get("recommendations").ForEach(func(_, item gjson.Result) bool {
		name := itemName(item)
		if name == "" {
			return true
		}
		b := legacyBucket(item, name)
		r.SetSteps(b, append(r.Steps(b), StepFromName(b, name)))
		return true
	})

	root.Get("lifestyleTips").ForEach(func(_, tip gjson.Result) bool {
		if tip.Type == gjson.String {
			r.LifestyleTips = append(r.LifestyleTips, tip.String())
		}
		return true
	})

	Normalize(r)
	if r.StepCount() == 0 {
		return nil, errNoStepNames
	}
	return r, nil
}

func itemName(item gjson.Result) string {
	switch {
	case item.Type == gjson.String:
		return strings.TrimSpace(item.String())
	case item.IsObject():
		return strings.TrimSpace(domain.CoalesceStr(
			item.Get("name").String(),
			item.Get("title").String(),
			item.Get("step").String(),
		))
	default:
		return ""
	}
}

// legacyBucket places a flat recommendation. A declared time or weekly
// frequency wins; otherwise masks and peels go weekly, retinoids and
// night products go to the evening, and everything else to the morning.
func legacyBucket(item gjson.Result, name string) domain.Bucket {
	if item.IsObject() {
		if strings.EqualFold(item.Get("frequency").String(), string(domain.FrequencyWeekly)) {
			return domain.BucketWeekly
		}
		declared := domain.CoalesceStr(item.Get("stepTime").String(), item.Get("timeOfDay").String())
		switch tod, _ := domain.ParseTimeOfDay(declared); tod {
		case domain.TimeMorning:
			return domain.BucketMorning
		case domain.TimeEvening:
			return domain.BucketEvening
		}
	}

	lower := strings.ToLower(name)
	switch ingredient.InferCategory(name) {
	case domain.CategoryMask, domain.CategoryClay:
		return domain.BucketWeekly
	}
	if strings.Contains(lower, "weekly") {
		return domain.BucketWeekly
	}
	for _, tag := range ingredient.InferTags(name) {
		if tag == ingredient.TagRetinoid {
			return domain.BucketEvening
		}
	}
	if strings.Contains(lower, "night") || strings.Contains(lower, "evening") {
		return domain.BucketEvening
	}
	return domain.BucketMorning
}

// bulletLine matches "- x", "• x", "* x", "1) x" and "1. x".
var bulletLine = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s+(.+?)\s*$`)

// RoutineFromBullets turns bullet or numbered plain-text lines into a
// morning-only routine.
func RoutineFromBullets(text string) (*domain.Routine, error) {
	var steps []domain.RoutineStep
	for _, line := range strings.Split(text, "\n") {
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if name := bulletName(m[1]); name != "" {
			steps = append(steps, StepFromName(domain.BucketMorning, name))
		}
	}

	r := &domain.Routine{Morning: steps}
	Normalize(r)
	if r.StepCount() == 0 {
		return nil, errNoBullets
	}
	return r, nil
}

// bulletName keeps the label part of "**Cleanser**: wash gently" style lines.
func bulletName(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	for _, sep := range []string{":", " – ", " — ", " - "} {
		if i := strings.Index(s, sep); i > 0 {
			s = s[:i]
			break
		}
	}
	return strings.TrimSpace(s)
}
