package specialist

import (
	"context"
	"fmt"
	"strings"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/cache"
	"github.com/vaanihq/vaani/internal/gemini"
	"github.com/vaanihq/vaani/internal/retrieval"
)

// NewKnowledgeSpecialist returns the handler for open banking questions.
// It retrieves matching reference passages (cached per normalized query)
// and grounds the generated answer on them; when retrieval yields
// nothing the answer falls back to general knowledge.
func NewKnowledgeSpecialist(deps Deps) assistant.SpecialistFunc {
	return knowledgeSpecialist{deps}.Handle
}

type knowledgeSpecialist struct {
	deps Deps
}

func (h knowledgeSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	log := h.deps.Logger.With("specialist", "knowledge")

	query := st.CurrentMessage()
	k := h.deps.Config.Retrieval.TopK
	filter := map[string]string{"language": langBase(st.Language)}

	key := cache.Key(query, filter, k)
	docs, err := h.deps.DocCache.GetOrCompute(ctx, key, func(cctx context.Context) ([]retrieval.Document, error) {
		return h.deps.Retriever.Search(cctx, query, k, filter)
	})
	if err != nil {
		// Retrieval going down degrades the answer, it does not fail the turn.
		log.WarnContext(ctx, "retrieval failed, answering without context", "error", err)
		docs = nil
	}

	instruction := gemini.NoContextInstruction
	if len(docs) > 0 {
		instruction = fmt.Sprintf(gemini.GroundedAnswerInstruction, formatPassages(docs))
	}

	reply, err := h.deps.Gemini.GenerateReply(ctx, st, instruction)
	if err != nil {
		return nil, fmt.Errorf("grounded answer: %w", err)
	}

	log.DebugContext(ctx, "knowledge answer generated", "passages", len(docs))
	return &assistant.Partial{Reply: reply}, nil
}

func formatPassages(docs []retrieval.Document) string {
	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, d.Title, d.Text)
	}
	return strings.TrimSpace(b.String())
}

func langBase(language string) string {
	if isHindi(language) {
		return "hi"
	}
	return "en"
}
