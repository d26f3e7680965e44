package intelligence

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/dermaloop/internal/llm"
)

// scriptedGateway answers each call with the next scripted reply.
type scriptedGateway struct {
	replies []scriptedReply
	calls   []llm.CompletionRequest
}

type scriptedReply struct {
	text string
	err  error
}

func (g *scriptedGateway) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	g.calls = append(g.calls, req)
	i := len(g.calls) - 1
	if i >= len(g.replies) {
		return nil, fmt.Errorf("unexpected call %d (%s)", i+1, req.Task)
	}
	r := g.replies[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.CompletionResponse{Text: r.text, Model: "test-model", FinishReason: "stop"}, nil
}

func reply(text string) scriptedReply { return scriptedReply{text: text} }

func failure(err error) scriptedReply { return scriptedReply{err: err} }

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }
