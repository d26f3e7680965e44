package intelligence

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_MergesMemoryBlock(t *testing.T) {
	gw := &scriptedGateway{replies: []scriptedReply{reply(
		`Use a gentle cleanser daily.<memory>{"morningRoutine":["Gentle Cleanser","gentle cleanser"],"eveningRoutine":[],"weeklyTreatments":[],"analysisNotes":[]}</memory>`,
	)}}
	svc := NewChatService(gw, fixedNow)

	res, err := svc.Reply(context.Background(), ChatRequest{Message: "  What should I use in the morning?  "})
	require.NoError(t, err)

	assert.Equal(t, "Use a gentle cleanser daily.", res.Reply)
	assert.True(t, res.MemoryUpdate)
	assert.Equal(t, []string{"Gentle Cleanser"}, res.Memory.MorningRoutineNames)
	assert.Equal(t, testNow, res.Memory.LastUpdated)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, domain.ChatMessage{Role: domain.ChatRoleUser, Content: "What should I use in the morning?", CreatedAt: testNow}, res.Messages[0])
	assert.Equal(t, domain.ChatRoleAssistant, res.Messages[1].Role)
	assert.Equal(t, "Use a gentle cleanser daily.", res.Messages[1].Content)
}

func TestChatService_NoBlockLeavesMemory(t *testing.T) {
	mem := domain.ChatMemory{EveningRoutineNames: []string{"Retinol Serum"}}
	gw := &scriptedGateway{replies: []scriptedReply{reply("Keep going, you're doing great!")}}

	res, err := NewChatService(gw, fixedNow).Reply(context.Background(), ChatRequest{Memory: mem, Message: "thanks"})
	require.NoError(t, err)

	assert.False(t, res.MemoryUpdate)
	assert.Equal(t, mem, res.Memory)
	assert.Equal(t, "Keep going, you're doing great!", res.Reply)
}

func TestChatService_MalformedBlockIsShownUnchanged(t *testing.T) {
	text := `Sure.<memory>{"morningRoutine": [</memory>`
	gw := &scriptedGateway{replies: []scriptedReply{reply(text)}}

	res, err := NewChatService(gw, fixedNow).Reply(context.Background(), ChatRequest{Message: "hi"})
	require.NoError(t, err)

	assert.False(t, res.MemoryUpdate)
	assert.Equal(t, text, res.Reply)
}

func TestChatService_PromptCarriesMemoryAndHistory(t *testing.T) {
	var history []domain.ChatMessage
	for i := 0; i < HistoryLimit+5; i++ {
		role := domain.ChatRoleUser
		if i%2 == 1 {
			role = domain.ChatRoleAssistant
		}
		history = append(history, domain.ChatMessage{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	mem := domain.ChatMemory{MorningRoutineNames: []string{"Gentle Cleanser"}}
	gw := &scriptedGateway{replies: []scriptedReply{reply("ok")}}

	_, err := NewChatService(gw, fixedNow).Reply(context.Background(), ChatRequest{
		History: history,
		Memory:  mem,
		Message: "next?",
	})
	require.NoError(t, err)

	require.Len(t, gw.calls, 1)
	call := gw.calls[0]
	assert.Equal(t, llm.TaskChat, call.Task)
	require.Len(t, call.Messages, HistoryLimit+2)

	system := call.Messages[0].Text()
	assert.Contains(t, system, "- Morning routine: Gentle Cleanser")
	assert.Contains(t, system, "<memory>")
	assert.Equal(t, "m5", call.Messages[1].Text())
	assert.Equal(t, "next?", call.Messages[len(call.Messages)-1].Text())
}

func TestChatService_EmptyMessage(t *testing.T) {
	gw := &scriptedGateway{}
	_, err := NewChatService(gw, fixedNow).Reply(context.Background(), ChatRequest{Message: "   "})

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, gw.calls)
}

func TestChatService_GatewayError(t *testing.T) {
	gw := &scriptedGateway{replies: []scriptedReply{failure(llm.ErrRateLimited)}}
	_, err := NewChatService(gw, fixedNow).Reply(context.Background(), ChatRequest{Message: "hi"})

	assert.ErrorIs(t, err, llm.ErrRateLimited)
}
