package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/dermaloop/internal/app"
	"github.com/alexanderramin/dermaloop/internal/cache"
	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/intelligence"
	"github.com/alexanderramin/dermaloop/internal/llm"
	"github.com/alexanderramin/dermaloop/internal/repository"
	"github.com/alexanderramin/dermaloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	formatter.SetPlain(true)
	os.Exit(m.Run())
}

var cliNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// scriptedGateway returns queued replies in order.
type scriptedGateway struct {
	replies []string
	calls   int
}

func (g *scriptedGateway) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if g.calls >= len(g.replies) {
		return nil, fmt.Errorf("unexpected %s call", req.Task)
	}
	text := g.replies[g.calls]
	g.calls++
	return &llm.CompletionResponse{Text: text, FinishReason: "stop"}, nil
}

type stubCatalog struct{}

func (stubCatalog) Search(_ context.Context, query string) ([]domain.Product, error) {
	if query == "missing" {
		return nil, nil
	}
	return []domain.Product{{Name: "Hydra " + query, Brand: "Acme", Ingredients: []string{"aqua"}}}, nil
}

// testApp wires a full App over an in-memory DB, a temp-dir routine cache
// and a scripted gateway.
func testApp(t *testing.T, replies ...string) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	gw := &scriptedGateway{replies: replies}
	clock := testutil.FixedClock(cliNow)

	session := app.NewSession(app.Deps{
		Routines: intelligence.NewRoutineService(gw, nil, nil, intelligence.WithClock(clock)),
		Analyzer: intelligence.NewAnalysisService(gw, clock),
		Chat:     intelligence.NewChatService(gw, clock),
		Store:    cache.NewRoutineCache(repository.NewFileKVStore(t.TempDir())),
		UoW:      testutil.NewTestUoW(database),
		Now:      clock,
	})
	require.NoError(t, session.Restore(context.Background()))

	return &App{
		Session: session,
		Catalog: stubCatalog{},
		Now:     clock,
		ReadImage: func(string) ([]byte, error) {
			return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...), nil
		},
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, a *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(a)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

const cliRoutine = `{"morningRoutine":[{"name":"Gentle Cleanser","category":"cleanser"},{"name":"SPF 50 Sunscreen","category":"sunscreen"}],
"eveningRoutine":[{"name":"Retinol Serum","category":"serum"},{"name":"Glycolic Toner","category":"exfoliant","conflictsWith":["retinoid"]}],
"weeklyTreatments":[],"progressTracking":{"skinHealthScore":0.6,"nextCheckIn":"2026-06-15"}}`

func TestRoutineShow_Empty(t *testing.T) {
	out, err := executeCmd(t, testApp(t), "", "routine", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No routine yet")
}

func TestRoutineGenerate_PrintsChangesAndRoutine(t *testing.T) {
	a := testApp(t, cliRoutine)

	out, err := executeCmd(t, a, "", "routine", "generate")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Morning: + Gentle Cleanser, SPF 50 Sunscreen")
	assert.Contains(t, out, "✓ Evening: + Retinol Serum")
	assert.NotContains(t, out, "Glycolic Toner")
	assert.Contains(t, out, "Next check-in Jun 15, 2026 (In 2w)")

	out, err = executeCmd(t, a, "", "routine", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Gentle Cleanser")
}

func TestRoutineGenerate_DecodingFailureKeepsRoutine(t *testing.T) {
	a := testApp(t, cliRoutine, "no idea", "still no idea")
	_, err := executeCmd(t, a, "", "routine", "generate", "-q")
	require.NoError(t, err)

	_, err = executeCmd(t, a, "", "routine", "generate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDecoding))
	assert.Contains(t, err.Error(), "current routine is unchanged")

	out, err := executeCmd(t, a, "", "routine", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Retinol Serum")
}

func TestReconcile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte("Sure!\n```json\n"+cliRoutine+"\n```"), 0o644))

	out, err := executeCmd(t, testApp(t), "", "reconcile", "--file", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Decoded via direct")
	assert.Contains(t, out, "✗ Evening: Glycolic Toner (ingredient_conflict)")
	assert.Contains(t, out, "Retinol Serum")
}

func TestReconcile_StdinJSONWithRetinoid(t *testing.T) {
	raw := `{"eveningRoutine":[{"name":"Night Cream","category":"moisturizer"}]}`

	out, err := executeCmd(t, testApp(t), raw, "reconcile", "--file", "-", "--json", "--skin-age", "40", "--age", "30")
	require.NoError(t, err)

	assert.Contains(t, out, `"name": "Night Cream"`)
	assert.Contains(t, out, `"name": "Low-Strength Retinol"`)
}

func TestReconcile_RequiresFile(t *testing.T) {
	_, err := executeCmd(t, testApp(t), "", "reconcile")
	assert.Error(t, err)
}

func TestAnalyze_StoresAnalysis(t *testing.T) {
	a := testApp(t, `{"skinAge": 35, "skinHealthScore": 0.75, "skinType": "dry", "conditions": [{"name": "Dehydration", "severity": "moderate"}], "summary": "Needs moisture."}`)

	out, err := executeCmd(t, a, "", "analyze", "--image", "selfie.png")
	require.NoError(t, err)
	assert.Contains(t, out, "Skin age 35")
	assert.Contains(t, out, "Dehydration moderate")

	out, err = executeCmd(t, a, "", "memory", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Dehydration (moderate)")
}

func TestChat_SingleTurnAndHistory(t *testing.T) {
	a := testApp(t, `Cleanse gently.<memory>{"morningRoutine":["Gentle Cleanser"]}</memory>`)

	out, err := executeCmd(t, a, "", "chat", "what", "should", "I", "use?")
	require.NoError(t, err)
	assert.Equal(t, "coach  Cleanse gently.\n(noted)\n", out)

	out, err = executeCmd(t, a, "", "chat", "--history")
	require.NoError(t, err)
	assert.Equal(t, "you  what should I use?\ncoach  Cleanse gently.\n", out)

	out, err = executeCmd(t, a, "", "memory", "show", "--prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "- Morning routine: Gentle Cleanser")
}

func TestChat_Loop(t *testing.T) {
	a := testApp(t, "Hello!", "Bye!")

	out, err := executeCmd(t, a, "hi\n\n/memory\nthanks\n/quit\nignored\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "coach  Hello!")
	assert.Contains(t, out, "Nothing remembered yet.")
	assert.Contains(t, out, "coach  Bye!")
}

func TestChat_Clear(t *testing.T) {
	a := testApp(t, "Hello!")
	_, err := executeCmd(t, a, "", "chat", "hi")
	require.NoError(t, err)

	out, err := executeCmd(t, a, "", "chat", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation cleared")

	out, err = executeCmd(t, a, "", "chat", "--history")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages yet.")
}

func TestProductsSearch(t *testing.T) {
	out, err := executeCmd(t, testApp(t), "", "products", "search", "gel", "cleanser")
	require.NoError(t, err)
	assert.Contains(t, out, "Hydra gel cleanser")
	assert.Contains(t, out, "Acme")

	out, err = executeCmd(t, testApp(t), "", "products", "search", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "No products found.")
}

func TestLLMDisabled(t *testing.T) {
	database := testutil.NewTestDB(t)
	session := app.NewSession(app.Deps{
		Store: cache.NewRoutineCache(repository.NewFileKVStore(t.TempDir())),
		UoW:   testutil.NewTestUoW(database),
	})
	require.NoError(t, session.Restore(context.Background()))

	_, err := executeCmd(t, &App{Session: session}, "", "routine", "generate")
	assert.ErrorIs(t, err, app.ErrLLMDisabled)
}
