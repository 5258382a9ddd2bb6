package telegram

import (
	"log/slog"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
	"github.com/vaanihq/vaani/internal/config"
)

// Deps provides dependencies for Telegram handlers.
type Deps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    banking.Store
	Pipeline *assistant.Pipeline
}
