package repository

import (
	"context"

	"github.com/alexanderramin/dermaloop/internal/domain"
)

// ErrNotFound is returned when a key or row does not exist.
var ErrNotFound = domain.ErrNotFound

// KVStore persists opaque documents under namespaced keys. Put replaces the
// whole value atomically: a concurrent Get sees either the old or the new
// document, never a partial one.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ChatLogRepo stores the assistant conversation in arrival order.
type ChatLogRepo interface {
	Append(ctx context.Context, msgs ...domain.ChatMessage) error
	// ListRecent returns up to limit of the newest messages, oldest first.
	ListRecent(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	// Trim keeps only the newest keep messages.
	Trim(ctx context.Context, keep int) error
	Clear(ctx context.Context) error
}
