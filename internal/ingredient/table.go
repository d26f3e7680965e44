// Package ingredient infers active-ingredient tags and step categories from
// free-text step names using ordered substring tables.
package ingredient

import (
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// Tag is an active-ingredient class relevant to conflict detection.
type Tag string

const (
	TagRetinoid        Tag = "retinoid"
	TagStrongExfoliant Tag = "strong_exfoliant"
	TagBenzoylPeroxide Tag = "benzoyl_peroxide"
	TagVitaminC        Tag = "vitamin_c"
)

// TagPattern maps a lowercase substring onto a tag.
type TagPattern struct {
	Substring string
	Tag       Tag
}

// TagTable is matched top to bottom; every matching row contributes its tag.
var TagTable = []TagPattern{
	{"retin", TagRetinoid},
	{"adapalene", TagRetinoid},
	{"glycolic", TagStrongExfoliant},
	{"salicylic", TagStrongExfoliant},
	{"lactic", TagStrongExfoliant},
	{"mandelic", TagStrongExfoliant},
	{"aha", TagStrongExfoliant},
	{"bha", TagStrongExfoliant},
	{"peel", TagStrongExfoliant},
	{"benzoyl", TagBenzoylPeroxide},
	{"vitamin c", TagVitaminC},
	{"vit c", TagVitaminC},
	{"ascorbic", TagVitaminC},
}

// InferTags returns the distinct tags whose pattern occurs in text, in table
// order.
func InferTags(text string) []Tag {
	lower := strings.ToLower(text)
	var out []Tag
	seen := make(map[Tag]bool)
	for _, p := range TagTable {
		if seen[p.Tag] || !strings.Contains(lower, p.Substring) {
			continue
		}
		seen[p.Tag] = true
		out = append(out, p.Tag)
	}
	return out
}

// NormalizeTag folds a declared conflict string ("Vitamin C", "strong-exfoliant")
// into tag spelling.
func NormalizeTag(s string) Tag {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return Tag(s)
}

// ConflictTags expands declared conflict strings into tags: each entry is
// kept in normalized form and additionally contributes any tag inferred from
// its text, so "AHA" and "retinol" match strong_exfoliant and retinoid.
func ConflictTags(declared []string) map[Tag]bool {
	out := make(map[Tag]bool, len(declared))
	for _, d := range declared {
		if strings.TrimSpace(d) == "" {
			continue
		}
		out[NormalizeTag(d)] = true
		for _, t := range InferTags(d) {
			out[t] = true
		}
	}
	return out
}

// CategoryPattern maps a lowercase substring onto a step category.
type CategoryPattern struct {
	Substring string
	Category  domain.StepCategory
}

// CategoryTable is matched top to bottom; the first matching row wins.
var CategoryTable = []CategoryPattern{
	{"sunscreen", domain.CategorySunscreen},
	{"spf", domain.CategorySunscreen},
	{"sun protection", domain.CategorySunscreen},
	{"cleans", domain.CategoryCleanser},
	{"face wash", domain.CategoryCleanser},
	{"toner", domain.CategoryToner},
	{"essence", domain.CategoryToner},
	{"clay", domain.CategoryClay},
	{"mask", domain.CategoryMask},
	{"exfoliat", domain.CategoryExfoliant},
	{"peel", domain.CategoryExfoliant},
	{"scrub", domain.CategoryExfoliant},
	{"salicylic", domain.CategoryBHA},
	{"bha", domain.CategoryBHA},
	{"glycolic", domain.CategoryAHA},
	{"lactic", domain.CategoryAHA},
	{"aha", domain.CategoryAHA},
	{"serum", domain.CategorySerum},
	{"retin", domain.CategoryTreatment},
	{"treatment", domain.CategoryTreatment},
	{"spot", domain.CategoryTreatment},
	{"benzoyl", domain.CategoryTreatment},
	{"moistur", domain.CategoryMoisturizer},
	{"cream", domain.CategoryMoisturizer},
	{"lotion", domain.CategoryMoisturizer},
	{"balm", domain.CategoryMoisturizer},
}

// InferCategory returns the first category whose pattern occurs in name, or
// CategoryOther.
func InferCategory(name string) domain.StepCategory {
	lower := strings.ToLower(name)
	for _, p := range CategoryTable {
		if strings.Contains(lower, p.Substring) {
			return p.Category
		}
	}
	return domain.CategoryOther
}
