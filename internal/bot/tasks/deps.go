// Package tasks implements scheduled background work for the assistant:
// reminder due-scans, rate-limiter window pruning, and database
// maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/vaanihq/vaani/internal/banking"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/internal/guard"
)

// ReminderNotifier delivers a due-reminder notice to a user, where a
// delivery surface for that user exists.
type ReminderNotifier interface {
	NotifyReminder(ctx context.Context, r banking.Reminder) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
// Notifier may be nil when no chat surface is running; the reminder scan
// then only marks reminders as fired.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    banking.Store
	Limiter  *guard.RateLimiter
	Config   *config.Config
	Notifier ReminderNotifier
}
