package telegram

import (
	"github.com/go-telegram/bot"
)

// RegisteredHandler bundles a command handler with its registration
// pattern and middleware.
type RegisteredHandler struct {
	HandlerType bot.HandlerType
	Pattern     string
	Handler     bot.HandlerFunc
	Middleware  []bot.Middleware
	MatchType   bot.MatchType
}

// RegisterAllCommands initializes and returns the map of bot commands.
// Everything that is not a command flows through the default message
// handler instead.
func RegisterAllCommands(deps Deps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: bot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   bot.MatchTypeCommandStartOnly,
	}

	return handlers
}
