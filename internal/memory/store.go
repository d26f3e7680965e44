package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/repository"
)

// Key is where the accumulated memory is persisted.
const Key = "dermaloop/memory/chat"

// Store persists a ChatMemory as JSON in a KVStore.
type Store struct {
	kv repository.KVStore
}

// NewStore creates a Store on kv.
func NewStore(kv repository.KVStore) *Store {
	return &Store{kv: kv}
}

// Load returns the stored memory, or an empty one when nothing is stored.
func (s *Store) Load(ctx context.Context) (domain.ChatMemory, error) {
	data, err := s.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ChatMemory{}, nil
		}
		return domain.ChatMemory{}, fmt.Errorf("loading chat memory: %w", err)
	}
	var m domain.ChatMemory
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.ChatMemory{}, fmt.Errorf("decoding chat memory: %w", err)
	}
	return m, nil
}

// Save replaces the stored memory.
func (s *Store) Save(ctx context.Context, m domain.ChatMemory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding chat memory: %w", err)
	}
	if err := s.kv.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("saving chat memory: %w", err)
	}
	return nil
}
