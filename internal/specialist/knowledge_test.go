package specialist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vaanihq/vaani/internal/banking"
	"github.com/vaanihq/vaani/internal/cache"
	"github.com/vaanihq/vaani/internal/gemini"
	"github.com/vaanihq/vaani/internal/retrieval"
)

func knowledgeDeps(store banking.Store, g *fakeGemini, r *fakeRetriever) Deps {
	deps := testDeps(store)
	deps.Gemini = g
	deps.Retriever = r
	deps.DocCache = cache.New[[]retrieval.Document](16, time.Minute)
	return deps
}

func TestKnowledgeGroundedAnswer(t *testing.T) {
	t.Parallel()

	g := &fakeGemini{reply: "Fixed deposits earn up to 7.1% per annum for a one year tenure."}
	r := &fakeRetriever{docs: []retrieval.Document{
		{ID: "d1", Title: "Fixed deposit rates", Text: "FD rates range from 6.5% to 7.1% by tenure.", Score: 0.92},
		{ID: "d2", Title: "Senior citizen rates", Text: "Senior citizens earn 0.5% extra on deposits.", Score: 0.81},
	}}
	handle := NewKnowledgeSpecialist(knowledgeDeps(&fakeStore{}, g, r))

	p, err := handle(context.Background(), testState("what are the current fd rates?"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.Reply != g.reply {
		t.Errorf("reply = %q, want the generated answer", p.Reply)
	}
	if r.calls != 1 {
		t.Errorf("retriever calls = %d, want 1", r.calls)
	}
	if len(g.instructions) != 1 {
		t.Fatalf("generate calls = %d, want 1", len(g.instructions))
	}
	instruction := g.instructions[0]
	if !strings.Contains(instruction, "Fixed deposit rates") || !strings.Contains(instruction, "[2]") {
		t.Errorf("instruction %q does not embed the retrieved passages", instruction)
	}
}

func TestKnowledgeCachesRetrieval(t *testing.T) {
	t.Parallel()

	g := &fakeGemini{reply: "answer"}
	r := &fakeRetriever{docs: []retrieval.Document{{ID: "d1", Title: "T", Text: "body"}}}
	handle := NewKnowledgeSpecialist(knowledgeDeps(&fakeStore{}, g, r))

	for range 2 {
		if _, err := handle(context.Background(), testState("what are the current fd rates?")); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	if r.calls != 1 {
		t.Errorf("retriever calls = %d, want the second turn served from cache", r.calls)
	}
	if len(g.instructions) != 2 {
		t.Errorf("generate calls = %d, want 2", len(g.instructions))
	}
}

func TestKnowledgeRetrievalFailureDegrades(t *testing.T) {
	t.Parallel()

	g := &fakeGemini{reply: "general answer"}
	r := &fakeRetriever{err: errors.New("qdrant unavailable")}
	handle := NewKnowledgeSpecialist(knowledgeDeps(&fakeStore{}, g, r))

	p, err := handle(context.Background(), testState("what is upi autopay?"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.Reply != "general answer" {
		t.Errorf("reply = %q", p.Reply)
	}
	if len(g.instructions) != 1 || g.instructions[0] != gemini.NoContextInstruction {
		t.Errorf("instruction = %q, want the no-context fallback", g.instructions)
	}
}

func TestKnowledgeGenerationError(t *testing.T) {
	t.Parallel()

	g := &fakeGemini{replyErr: errors.New("model overloaded")}
	r := &fakeRetriever{}
	handle := NewKnowledgeSpecialist(knowledgeDeps(&fakeStore{}, g, r))

	if _, err := handle(context.Background(), testState("what is upi autopay?")); err == nil {
		t.Fatal("expected the generation error to surface")
	}
}
