package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/monalabs/mona/internal/catalog"
	"github.com/monalabs/mona/internal/embedding"
	"github.com/monalabs/mona/internal/imagecache"
	"github.com/monalabs/mona/internal/llm"
	"github.com/monalabs/mona/internal/observability"
	"github.com/monalabs/mona/internal/retrieval"
	"github.com/monalabs/mona/internal/session"
	"github.com/monalabs/mona/internal/tools"
	"github.com/monalabs/mona/internal/vecindex"
)

type fixture struct {
	orch     *Orchestrator
	client   *llm.ScriptedClient
	sessions *session.Store
	cache    *imagecache.Cache
	dataDir  string
	sofaJPEG []byte
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 15, G: 15, B: 70, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// newFixture wires a full orchestrator around a scripted model. Only
// product 2 is seeded into the index, so every retrieval resolves to it.
func newFixture(t *testing.T, maxRounds int, steps ...llm.ScriptStep) *fixture {
	t.Helper()

	dataDir := t.TempDir()
	imgDir := filepath.Join(dataDir, "data", "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sofa := testJPEG(t)
	if err := os.WriteFile(filepath.Join(imgDir, "black_sofa.jpg"), sofa, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	embedder := embedding.NewMockEmbedder(8)
	index := vecindex.NewInMemoryIndex()
	store := catalog.NewInMemoryStore(catalog.SampleProducts())
	ctx := context.Background()

	descVec, err := embedder.EmbedText(ctx, "navy sofa")
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if err := index.Upsert(ctx, vecindex.TextCollection, "2_desc", descVec, vecindex.Meta{}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := index.Upsert(ctx, vecindex.ImageCollection, "2_img", descVec, vecindex.Meta{}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	engine := retrieval.NewEngine(embedder, embedder, index, store, 5*time.Second, nil)
	cache := imagecache.New()
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewTextSearchTool(engine)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(tools.NewImageSearchTool(engine, cache)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	client := llm.NewScriptedClient(steps...)
	sessions := session.NewStore()
	orch := NewOrchestrator(sessions, client, registry, cache, NewShaper(dataDir), maxRounds, nil, nil, nil)

	return &fixture{
		orch:     orch,
		client:   client,
		sessions: sessions,
		cache:    cache,
		dataDir:  dataDir,
		sofaJPEG: sofa,
	}
}

func toolCallStep(calls ...session.ToolCall) llm.ScriptStep {
	return llm.ScriptStep{Result: llm.Result{ToolCalls: calls}}
}

func finalTextStep(text string) llm.ScriptStep {
	payload, _ := json.Marshal(map[string]string{"type": "text", "content": text})
	return llm.ScriptStep{Result: llm.Result{Content: string(payload)}}
}

func finalProductStep(t *testing.T) llm.ScriptStep {
	t.Helper()
	product, _ := json.Marshal(map[string]any{
		"name":        "Navy Blue Velvet Sofa with Turned Wooden Legs",
		"description": "A navy blue velvet sofa.",
		"brand":       "Johnson",
		"category":    "furniture",
		"price":       1500,
		"image_url":   "data/images/black_sofa.jpg",
	})
	payload, _ := json.Marshal(map[string]string{"type": "json", "content": string(product)})
	return llm.ScriptStep{Result: llm.Result{Content: string(payload)}}
}

func TestHandleMessageTextSearchTurn(t *testing.T) {
	f := newFixture(t, 8,
		toolCallStep(session.ToolCall{ID: "call_1", Name: "search_product_by_text", Arguments: `{"text":"find a black sofa"}`}),
		finalProductStep(t),
	)

	reply, err := f.orch.HandleMessage(context.Background(), "", "find a black sofa", "")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply.SessionID == "" {
		t.Fatalf("reply has no session id")
	}

	var shaped struct {
		Type    string         `json:"type"`
		Content map[string]any `json:"content"`
	}
	if err := json.Unmarshal([]byte(reply.Response), &shaped); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if shaped.Type != "json" {
		t.Fatalf("response type = %q, want json", shaped.Type)
	}
	if shaped.Content["name"] != "Navy Blue Velvet Sofa with Turned Wooden Legs" {
		t.Fatalf("product name = %v", shaped.Content["name"])
	}
	wantEncoded := base64.StdEncoding.EncodeToString(f.sofaJPEG)
	if shaped.Content["image_encoded"] != wantEncoded {
		t.Fatalf("image_encoded does not match the catalog image file")
	}

	sess, err := f.sessions.Get(reply.SessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	turns := sess.History()
	wantRoles := []session.Role{
		session.RoleSystem,
		session.RoleUser,
		session.RoleAssistant,
		session.RoleTool,
		session.RoleAssistant,
	}
	if len(turns) != len(wantRoles) {
		t.Fatalf("history has %d turns, want %d", len(turns), len(wantRoles))
	}
	for i, role := range wantRoles {
		if turns[i].Role != role {
			t.Fatalf("turn %d role = %q, want %q", i, turns[i].Role, role)
		}
	}
	if turns[3].ToolCallID != "call_1" {
		t.Fatalf("tool result correlation id = %q, want call_1", turns[3].ToolCallID)
	}
	if !strings.Contains(turns[3].Content, "Johnson") {
		t.Fatalf("tool result does not carry the resolved product: %q", turns[3].Content)
	}
}

func TestHandleMessageAppendsToExistingSession(t *testing.T) {
	f := newFixture(t, 8,
		finalTextStep("Hello, how can I help?"),
		toolCallStep(session.ToolCall{ID: "call_1", Name: "search_product_by_text", Arguments: `{"text":"something cheaper"}`}),
		finalTextStep("Here is a cheaper option."),
	)
	ctx := context.Background()

	first, err := f.orch.HandleMessage(ctx, "", "hi", "")
	if err != nil {
		t.Fatalf("first HandleMessage() error = %v", err)
	}
	second, err := f.orch.HandleMessage(ctx, first.SessionID, "what about something cheaper?", "")
	if err != nil {
		t.Fatalf("second HandleMessage() error = %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed across turns")
	}

	calls := f.client.Calls()
	if len(calls) != 3 {
		t.Fatalf("model saw %d invocations, want 3", len(calls))
	}
	// The second turn's history must include all first-turn turns.
	secondHistory := calls[1]
	if secondHistory[0].Role != session.RoleSystem {
		t.Fatalf("history does not start with the system directive")
	}
	foundFirstUser := false
	for _, turn := range secondHistory {
		if turn.Role == session.RoleUser && turn.Content == "hi" {
			foundFirstUser = true
		}
	}
	if !foundFirstUser {
		t.Fatalf("prior user turn missing from second invocation history")
	}
	if got := secondHistory[len(secondHistory)-1].Content; got != "what about something cheaper?" {
		t.Fatalf("last turn = %q, want the new user message", got)
	}
}

func TestHandleMessageImageOnlyTurn(t *testing.T) {
	f := newFixture(t, 8, finalTextStep("Looking at your image now."))

	rawB64 := base64.StdEncoding.EncodeToString(testJPEG(t))
	_, err := f.orch.HandleMessage(context.Background(), "", "", rawB64)
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	calls := f.client.Calls()
	if len(calls) != 1 {
		t.Fatalf("model saw %d invocations, want 1", len(calls))
	}
	userTurn := calls[0][len(calls[0])-1]
	if userTurn.Role != session.RoleUser {
		t.Fatalf("last turn role = %q", userTurn.Role)
	}
	if !strings.HasPrefix(userTurn.Content, "find something like this image (image_id: img_") {
		t.Fatalf("user turn content = %q, want default prompt with image id", userTurn.Content)
	}
	if userTurn.ImageID == "" {
		t.Fatalf("user turn carries no image id")
	}
	// The image must already be in the cache when the model sees its id.
	if _, ok := f.cache.Get(userTurn.ImageID); !ok {
		t.Fatalf("image %q not registered in cache", userTurn.ImageID)
	}
}

func TestHandleMessageTracksCachedImagesGauge(t *testing.T) {
	f := newFixture(t, 8,
		finalTextStep("Looking at your image now."),
		finalTextStep("And at this one too."),
	)
	metrics := observability.NewMetrics("agent_test")
	f.orch.metrics = metrics
	ctx := context.Background()

	rawB64 := base64.StdEncoding.EncodeToString(testJPEG(t))
	if _, err := f.orch.HandleMessage(ctx, "", "", rawB64); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.CachedImages); got != 1 {
		t.Fatalf("cached_images gauge = %v, want 1", got)
	}

	if _, err := f.orch.HandleMessage(ctx, "", "", rawB64); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if got := testutil.ToFloat64(metrics.CachedImages); got != 2 {
		t.Fatalf("cached_images gauge = %v, want 2", got)
	}
}

func TestHandleMessageRejectsBadImagePayload(t *testing.T) {
	f := newFixture(t, 8)
	_, err := f.orch.HandleMessage(context.Background(), "", "look", "not-base64!!!")
	if err == nil {
		t.Fatalf("HandleMessage() should reject undecodable image payload")
	}
}

func TestHandleMessageTwoToolCallsInOneRound(t *testing.T) {
	f := newFixture(t, 8,
		toolCallStep(
			session.ToolCall{ID: "call_1", Name: "search_product_by_text", Arguments: `{"text":"sofa"}`},
			session.ToolCall{ID: "call_2", Name: "search_product_by_text", Arguments: `{"text":"cheap sofa"}`},
		),
		finalTextStep("Found two options."),
	)

	reply, err := f.orch.HandleMessage(context.Background(), "", "compare sofas", "")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	sess, err := f.sessions.Get(reply.SessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	turns := sess.History()
	// system, user, assistant(2 calls), tool, tool, assistant
	if len(turns) != 6 {
		t.Fatalf("history has %d turns, want 6", len(turns))
	}
	if turns[3].ToolCallID != "call_1" || turns[4].ToolCallID != "call_2" {
		t.Fatalf("tool results out of order: %q then %q", turns[3].ToolCallID, turns[4].ToolCallID)
	}

	// Both results must be present before the next model invocation.
	calls := f.client.Calls()
	secondHistory := calls[1]
	toolResults := 0
	for _, turn := range secondHistory {
		if turn.Role == session.RoleTool {
			toolResults++
		}
	}
	if toolResults != 2 {
		t.Fatalf("second invocation saw %d tool results, want 2", toolResults)
	}
}

func TestHandleMessageToolRoundBound(t *testing.T) {
	call := session.ToolCall{ID: "call_x", Name: "search_product_by_text", Arguments: `{"text":"sofa"}`}
	f := newFixture(t, 2,
		toolCallStep(call),
		toolCallStep(call),
		toolCallStep(call),
	)

	_, err := f.orch.HandleMessage(context.Background(), "", "loop forever", "")
	if !errors.Is(err, ErrToolRoundsExceeded) {
		t.Fatalf("HandleMessage() error = %v, want ErrToolRoundsExceeded", err)
	}

	// History up to the failure point is preserved for inspection.
	if f.sessions.Count() != 1 {
		t.Fatalf("session count = %d", f.sessions.Count())
	}
	calls := f.client.Calls()
	if len(calls) != 2 {
		t.Fatalf("model invoked %d times, want 2 (the bound)", len(calls))
	}
}

func TestHandleMessageUnknownToolRecovered(t *testing.T) {
	f := newFixture(t, 8,
		toolCallStep(session.ToolCall{ID: "call_1", Name: "order_pizza", Arguments: `{}`}),
		finalTextStep("Sorry, I cannot do that."),
	)

	reply, err := f.orch.HandleMessage(context.Background(), "", "order me a pizza", "")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	sess, err := f.sessions.Get(reply.SessionID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	turns := sess.History()
	var toolTurn *session.Turn
	for i := range turns {
		if turns[i].Role == session.RoleTool {
			toolTurn = &turns[i]
		}
	}
	if toolTurn == nil {
		t.Fatalf("no tool result turn recorded")
	}
	if !strings.Contains(toolTurn.Content, "tool call failed") {
		t.Fatalf("tool result = %q, want a failure report the model can react to", toolTurn.Content)
	}
}

func TestHandleMessageMalformedFinalOutput(t *testing.T) {
	f := newFixture(t, 8, llm.ScriptStep{Result: llm.Result{Content: "plain prose, not the contract"}})

	_, err := f.orch.HandleMessage(context.Background(), "", "hello", "")
	if !errors.Is(err, ErrMalformedOutput) {
		t.Fatalf("HandleMessage() error = %v, want ErrMalformedOutput", err)
	}
}

func TestHandleMessageUnknownSession(t *testing.T) {
	f := newFixture(t, 8)
	_, err := f.orch.HandleMessage(context.Background(), "no-such-session", "hello", "")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("HandleMessage() error = %v, want session.ErrNotFound", err)
	}
}

func TestHandleMessageModelFailurePreservesHistory(t *testing.T) {
	f := newFixture(t, 8, llm.ScriptStep{Err: llm.ErrUpstreamUnavailable})

	_, err := f.orch.HandleMessage(context.Background(), "", "hello", "")
	if !errors.Is(err, llm.ErrUpstreamUnavailable) {
		t.Fatalf("HandleMessage() error = %v, want ErrUpstreamUnavailable", err)
	}

	if f.sessions.Count() != 1 {
		t.Fatalf("session count = %d, want 1", f.sessions.Count())
	}
	calls := f.client.Calls()
	if len(calls) != 1 {
		t.Fatalf("model invoked %d times", len(calls))
	}
	// The user turn was appended before the failure and must survive it.
	last := calls[0][len(calls[0])-1]
	if last.Role != session.RoleUser || last.Content != "hello" {
		t.Fatalf("last turn = %+v, want the user message", last)
	}
}
