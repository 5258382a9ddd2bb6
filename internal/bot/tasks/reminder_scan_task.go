package tasks

import (
	"context"
	"fmt"
	"time"
)

// newReminderScanTask creates the scheduled task that fires due payment
// reminders. Delivery is best effort: a reminder is marked as fired even
// when no surface could reach the user, so it never fires twice.
func newReminderScanTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "reminder_scan")

	return func(ctx context.Context) error {
		due, err := deps.Store.DueReminders(ctx, time.Now().UTC())
		if err != nil {
			log.ErrorContext(ctx, "Reminder scan query failed", "error", err)
			return fmt.Errorf("reminder scan failed: %w", err)
		}
		if len(due) == 0 {
			log.DebugContext(ctx, "No reminders due")
			return nil
		}

		delivered := 0
		for _, r := range due {
			if deps.Notifier != nil {
				if err := deps.Notifier.NotifyReminder(ctx, r); err != nil {
					log.WarnContext(ctx, "Failed to deliver reminder notice",
						"reminder_id", r.ID, "error", err)
				} else {
					delivered++
				}
			}

			if err := deps.Store.MarkReminderNotified(ctx, r.ID); err != nil {
				log.ErrorContext(ctx, "Failed to mark reminder notified",
					"reminder_id", r.ID, "error", err)
			}
		}

		log.InfoContext(ctx, "Reminder scan completed", "due", len(due), "delivered", delivered)
		return nil
	}
}
