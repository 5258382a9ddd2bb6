package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
)

const (
	turnTimeout        = 2 * time.Minute
	sendMessageTimeout = 10 * time.Second
	dbSaveTimeout      = 5 * time.Second
)

type messageHandler struct {
	deps Deps
}

// NewMessageHandler creates the default handler: every non-command text
// message in a private chat becomes one assistant turn. Group chats are
// ignored; account details have no business there.
func NewMessageHandler(deps Deps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}
	if msg.Chat.Type != models.ChatTypePrivate {
		log.DebugContext(ctx, "Ignoring non-private chat", "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)
	log = log.With("chat_id", chatID, "user_id", userID)

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	req := assistant.TurnRequest{
		Message:        msg.Text,
		UserID:         userID,
		SessionID:      "tg-" + strconv.FormatInt(chatID, 10),
		Language:       localeFor(msg.From.LanguageCode),
		MessageHistory: loadHistory(ctx, deps, chatID, log),
		StructuredData: loadPriorCard(ctx, deps, chatID, log),
	}
	if msg.From.FirstName != "" {
		req.UserContext = map[string]string{"name": msg.From.FirstName}
	}

	saveChatMessageWithRetry(ctx, deps, &banking.ChatMessage{
		ChatID:    chatID,
		UserID:    userID,
		Role:      assistant.RoleUser,
		Content:   msg.Text,
		Timestamp: time.Now().UTC(),
	}, "user message")

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	envelope := deps.Pipeline.ProcessTurn(ctx, req)

	if ctx.Err() != nil {
		log.ErrorContext(ctx, "Context cancelled before sending reply", "error", ctx.Err())
		return
	}

	sendCtx, sendCancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer sendCancel()
	sent, err := b.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            envelope.Response,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply message", "error", err)
		return
	}
	log.InfoContext(ctx, "Sent reply", "message_id", sent.ID, "intent", envelope.Intent)

	reply := &banking.ChatMessage{
		ChatID:    chatID,
		UserID:    userID,
		Role:      assistant.RoleAssistant,
		Content:   envelope.Response,
		Timestamp: time.Now().UTC(),
	}
	if envelope.StructuredData != nil {
		if raw, mErr := json.Marshal(envelope.StructuredData); mErr == nil {
			reply.Structured = sql.NullString{String: string(raw), Valid: true}
		} else {
			log.WarnContext(ctx, "Failed to encode structured payload for storage", "error", mErr)
		}
	}
	saveChatMessageWithRetry(ctx, deps, reply, "assistant reply")
}

// loadHistory fetches recent turns and reverses them into prompt order.
// A read failure degrades to an empty history rather than failing the turn.
func loadHistory(ctx context.Context, deps Deps, chatID int64, log *slog.Logger) []assistant.Message {
	rows, err := deps.Store.RecentChatMessages(ctx, chatID, deps.Config.Telegram.HistoryLimit)
	if err != nil {
		log.WarnContext(ctx, "Failed to load chat history, continuing without it", "error", err)
		return nil
	}
	return historyFromRows(rows)
}

func historyFromRows(rows []banking.ChatMessage) []assistant.Message {
	if len(rows) == 0 {
		return nil
	}
	history := make([]assistant.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		history = append(history, assistant.Message{
			Role:      rows[i].Role,
			Text:      rows[i].Content,
			Timestamp: rows[i].Timestamp,
		})
	}
	return history
}

// loadPriorCard restores the structured payload from the previous assistant
// reply so multi-step flows, transfer confirmations for one, survive
// without any client-side state.
func loadPriorCard(ctx context.Context, deps Deps, chatID int64, log *slog.Logger) *assistant.StructuredData {
	raw, err := deps.Store.LatestStructured(ctx, chatID)
	if err != nil {
		log.WarnContext(ctx, "Failed to load prior card, continuing without it", "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}
	var card assistant.StructuredData
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		log.WarnContext(ctx, "Failed to decode prior card, continuing without it", "error", err)
		return nil
	}
	return &card
}

// localeFor maps a Telegram language code onto a supported reply locale.
func localeFor(code string) string {
	if strings.HasPrefix(strings.ToLower(code), "hi") {
		return "hi-IN"
	}
	return "en-IN"
}

// saveChatMessageWithRetry attempts to persist a chat message with retry
// logic, logging failures instead of propagating them.
func saveChatMessageWithRetry(ctx context.Context, deps Deps, msg *banking.ChatMessage, msgType string) {
	log := deps.Logger.With("handler", "message")
	const maxRetries = 3
	var err error

	for i := range [maxRetries]struct{}{} {
		if ctx.Err() != nil {
			log.WarnContext(ctx, fmt.Sprintf("Context cancelled, aborting %s save attempts", msgType),
				"error", ctx.Err(), "chat_id", msg.ChatID, "attempt", i+1)
			return
		}

		dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
		err = deps.Store.SaveChatMessage(dbCtx, msg)
		cancel()

		if err == nil {
			log.DebugContext(ctx, fmt.Sprintf("%s saved", msgType), "chat_id", msg.ChatID)
			return
		}

		log.WarnContext(ctx, fmt.Sprintf("Failed to save %s", msgType),
			"error", err, "chat_id", msg.ChatID, "attempt", i+1, "max_attempts", maxRetries)

		if i < maxRetries-1 {
			time.Sleep(time.Duration(500*(i+1)) * time.Millisecond)
		}
	}

	log.ErrorContext(ctx, fmt.Sprintf("Giving up saving %s after %d attempts", msgType, maxRetries),
		"error", err, "chat_id", msg.ChatID)
}
