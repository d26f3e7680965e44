package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/dermaloop/internal/db"
	"github.com/alexanderramin/dermaloop/internal/domain"
)

// SQLiteChatLogRepo implements ChatLogRepo over the chat_messages table.
type SQLiteChatLogRepo struct {
	db db.DBTX
}

// NewSQLiteChatLogRepo creates a repo on conn, which may be a transaction.
func NewSQLiteChatLogRepo(conn db.DBTX) *SQLiteChatLogRepo {
	return &SQLiteChatLogRepo{db: conn}
}

func (r *SQLiteChatLogRepo) Append(ctx context.Context, msgs ...domain.ChatMessage) error {
	query := `INSERT INTO chat_messages (role, content, created_at) VALUES (?, ?, ?)`
	for _, m := range msgs {
		if _, err := r.db.ExecContext(ctx, query, string(m.Role), m.Content, formatTime(m.CreatedAt)); err != nil {
			return fmt.Errorf("appending chat message: %w", err)
		}
	}
	return nil
}

func (r *SQLiteChatLogRepo) ListRecent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM chat_messages ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var (
			m       domain.ChatMessage
			role    string
			created string
		)
		if err := rows.Scan(&role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		m.Role = domain.ChatRole(role)
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return out, nil
}

func (r *SQLiteChatLogRepo) Trim(ctx context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	query := `DELETE FROM chat_messages WHERE id NOT IN (
		SELECT id FROM chat_messages ORDER BY id DESC LIMIT ?
	)`
	if _, err := r.db.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("trimming chat messages: %w", err)
	}
	return nil
}

func (r *SQLiteChatLogRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("clearing chat messages: %w", err)
	}
	return nil
}
