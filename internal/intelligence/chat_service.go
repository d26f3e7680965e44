package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/llm"
	"github.com/alexanderramin/dermaloop/internal/memory"
)

// HistoryLimit is how many prior messages are replayed to the model and kept
// in the chat log.
const HistoryLimit = 40

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message is empty")

// ChatRequest is one user turn with the context it runs against.
type ChatRequest struct {
	History []domain.ChatMessage
	Memory  domain.ChatMemory
	Message string
}

// ChatResult carries the visible reply, the merged memory and the two
// messages to append to the log.
type ChatResult struct {
	Reply        string
	Memory       domain.ChatMemory
	MemoryUpdate bool
	Messages     []domain.ChatMessage
}

// ChatService runs the coaching assistant.
type ChatService interface {
	Reply(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

type chatService struct {
	gateway llm.Gateway
	now     func() time.Time
}

// NewChatService creates a ChatService. now defaults to time.Now.
func NewChatService(gateway llm.Gateway, now func() time.Time) ChatService {
	if now == nil {
		now = time.Now
	}
	return &chatService{gateway: gateway, now: now}
}

func (s *chatService) Reply(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	history := req.History
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.TextMessage(llm.RoleSystem, buildChatSystemPrompt(req.Memory)))
	for _, m := range history {
		messages = append(messages, llm.TextMessage(string(m.Role), m.Content))
	}
	messages = append(messages, llm.TextMessage(llm.RoleUser, text))

	sent := s.now().UTC()
	resp, err := s.gateway.Complete(ctx, llm.CompletionRequest{
		Task:     llm.TaskChat,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("llm chat failed: %w", err)
	}

	received := s.now().UTC()
	mem, visible := req.Memory, resp.Text
	update, stripped, updated := memory.ParseBlock(resp.Text)
	if updated {
		mem, visible = memory.Apply(mem, update, received), stripped
	}

	return &ChatResult{
		Reply:        visible,
		Memory:       mem,
		MemoryUpdate: updated,
		Messages: []domain.ChatMessage{
			{Role: domain.ChatRoleUser, Content: text, CreatedAt: sent},
			{Role: domain.ChatRoleAssistant, Content: visible, CreatedAt: received},
		},
	}, nil
}
