package cache

import (
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// NoChangeLine is returned by Diff when no bucket differs.
const NoChangeLine = "Routines updated"

// maxNamesPerSide bounds the added and removed names shown per bucket.
const maxNamesPerSide = 3

// Diff describes, per bucket, the step names added to and removed from old
// in next. Names match ignoring case and surrounding whitespace. A nil old
// routine counts as empty. When nothing changed the single line
// NoChangeLine is returned.
func Diff(old, next *domain.Routine) []string {
	var lines []string
	for _, b := range domain.Buckets {
		added := difference(next.Steps(b), old.Steps(b))
		removed := difference(old.Steps(b), next.Steps(b))
		if len(added) == 0 && len(removed) == 0 {
			continue
		}

		var sb strings.Builder
		sb.WriteString(string(b))
		sb.WriteString(":")
		if len(added) > 0 {
			sb.WriteString(" + ")
			sb.WriteString(strings.Join(head(added), ", "))
		}
		if len(removed) > 0 {
			if len(added) > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(" − ")
			sb.WriteString(strings.Join(head(removed), ", "))
		}
		lines = append(lines, sb.String())
	}
	if len(lines) == 0 {
		return []string{NoChangeLine}
	}
	return lines
}

// difference returns the names in a that are not in b, in a's order and
// without repeats.
func difference(a, b []domain.RoutineStep) []string {
	exclude := make(map[string]bool, len(b))
	for _, s := range b {
		exclude[nameKey(s.Name)] = true
	}
	var out []string
	for _, s := range a {
		key := nameKey(s.Name)
		if key == "" || exclude[key] {
			continue
		}
		exclude[key] = true
		out = append(out, strings.TrimSpace(s.Name))
	}
	return out
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func head(names []string) []string {
	if len(names) > maxNamesPerSide {
		return names[:maxNamesPerSide]
	}
	return names
}
