package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"

	"github.com/vaanihq/vaani/internal/banking"
)

// Notifier delivers due-reminder notices over Telegram. User IDs on this
// surface are Telegram user IDs, which equal the private chat ID.
type Notifier struct {
	b   *bot.Bot
	log *slog.Logger
}

// NewNotifier creates a reminder notifier bound to a running bot instance.
func NewNotifier(b *bot.Bot, logger *slog.Logger) *Notifier {
	return &Notifier{b: b, log: logger.With("component", "telegram_notifier")}
}

// NotifyReminder sends the reminder title to the user's private chat.
// Users who never talked to the bot over Telegram are unreachable here;
// the caller decides what that means for the reminder.
func (n *Notifier) NotifyReminder(ctx context.Context, r banking.Reminder) error {
	chatID, err := strconv.ParseInt(r.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("user %q has no telegram chat: %w", r.UserID, err)
	}

	_, err = n.b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "Reminder: " + r.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to send reminder notice: %w", err)
	}

	n.log.DebugContext(ctx, "Delivered reminder notice", "chat_id", chatID, "reminder_id", r.ID)
	return nil
}
