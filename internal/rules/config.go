package rules

import (
	"os"
	"strconv"
)

// Config holds the tunables of the retinoid heuristic.
type Config struct {
	// DefaultChronologicalAge is assumed when the caller has no age estimate.
	DefaultChronologicalAge int
	// RetinoidGapThreshold is the minimum skin-age gap, in years, that
	// triggers the evening retinoid step.
	RetinoidGapThreshold int
}

// DefaultConfig returns the stock heuristic parameters.
func DefaultConfig() Config {
	return Config{
		DefaultChronologicalAge: 28,
		RetinoidGapThreshold:    5,
	}
}

// LoadConfig reads rule parameters from environment variables, falling back
// to defaults for unset or invalid values.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DERMALOOP_RULES_DEFAULT_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultChronologicalAge = n
		}
	}
	if v := os.Getenv("DERMALOOP_RULES_RETINOID_GAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetinoidGapThreshold = n
		}
	}
	return cfg
}
