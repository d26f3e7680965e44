// Package cache persists the reconciled routine and the latest analysis, and
// summarizes what changed between two routines.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/repository"
)

// Storage keys.
const (
	RoutineKey  = "dermaloop/routine/current"
	AnalysisKey = "dermaloop/analysis/latest"
)

// RoutineCache mirrors the authoritative routine and analysis in a KVStore
// for restart recovery.
type RoutineCache struct {
	kv repository.KVStore
}

// NewRoutineCache creates a cache on kv.
func NewRoutineCache(kv repository.KVStore) *RoutineCache {
	return &RoutineCache{kv: kv}
}

// Save replaces the cached routine.
func (c *RoutineCache) Save(ctx context.Context, r *domain.Routine) error {
	if r == nil {
		return errors.New("cannot cache a nil routine")
	}
	return c.put(ctx, RoutineKey, r)
}

// Load returns the cached routine, or nil when none has been saved.
func (c *RoutineCache) Load(ctx context.Context) (*domain.Routine, error) {
	var r domain.Routine
	found, err := c.get(ctx, RoutineKey, &r)
	if err != nil || !found {
		return nil, err
	}
	return &r, nil
}

// SaveAnalysis replaces the cached skin analysis.
func (c *RoutineCache) SaveAnalysis(ctx context.Context, a *domain.SkinAnalysis) error {
	if a == nil {
		return errors.New("cannot cache a nil analysis")
	}
	return c.put(ctx, AnalysisKey, a)
}

// LoadAnalysis returns the cached analysis, or nil when none has been saved.
func (c *RoutineCache) LoadAnalysis(ctx context.Context) (*domain.SkinAnalysis, error) {
	var a domain.SkinAnalysis
	found, err := c.get(ctx, AnalysisKey, &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (c *RoutineCache) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := c.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (c *RoutineCache) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}
