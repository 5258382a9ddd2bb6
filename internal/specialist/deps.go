// Package specialist implements the per-intent handlers the dispatcher
// invokes. Each specialist reads the turn state and returns the partial
// mutation to merge back; banking data flows through the store, answers
// to open questions flow through retrieval and the language model.
package specialist

import (
	"log/slog"

	"github.com/vaanihq/vaani/internal/banking"
	"github.com/vaanihq/vaani/internal/cache"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/internal/gemini"
	"github.com/vaanihq/vaani/internal/retrieval"
)

// Deps provides dependencies for the specialists.
type Deps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     banking.Store
	Gemini    gemini.Client
	Retriever retrieval.Retriever
	DocCache  *cache.Cache[[]retrieval.Document]
}
