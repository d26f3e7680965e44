package domain

import "strings"

type StepCategory string

const (
	CategoryCleanser    StepCategory = "cleanser"
	CategoryToner       StepCategory = "toner"
	CategorySerum       StepCategory = "serum"
	CategoryExfoliant   StepCategory = "exfoliant"
	CategoryBHA         StepCategory = "bha"
	CategoryAHA         StepCategory = "aha"
	CategoryTreatment   StepCategory = "treatment"
	CategoryMoisturizer StepCategory = "moisturizer"
	CategorySunscreen   StepCategory = "sunscreen"
	CategoryMask        StepCategory = "mask"
	CategoryClay        StepCategory = "clay"
	CategoryOther       StepCategory = "other"
)

// Normalize lowercases and trims the category.
func (c StepCategory) Normalize() StepCategory {
	return StepCategory(strings.ToLower(strings.TrimSpace(string(c))))
}

type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyTwiceDaily Frequency = "twice_daily"
	FrequencyNightly    Frequency = "nightly"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyAsNeeded   Frequency = "as_needed"
)

// ValidFrequencies is the canonical set of accepted frequency strings.
var ValidFrequencies = map[Frequency]bool{
	FrequencyDaily: true, FrequencyTwiceDaily: true, FrequencyNightly: true,
	FrequencyWeekly: true, FrequencyAsNeeded: true,
}

type TimeOfDay string

const (
	TimeMorning TimeOfDay = "morning"
	TimeEvening TimeOfDay = "evening"
	TimeAnytime TimeOfDay = "anytime"
)

// ParseTimeOfDay maps loose model output ("AM", "night", "Evening") onto a
// TimeOfDay. Unknown values report false.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "morning", "am":
		return TimeMorning, true
	case "evening", "night", "pm", "nightly":
		return TimeEvening, true
	case "anytime", "any", "both":
		return TimeAnytime, true
	default:
		return "", false
	}
}
