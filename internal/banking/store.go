package banking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Sentinel errors callers branch on to produce user-facing messages.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
	ErrReminderNotFound  = errors.New("reminder not found")
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// AccountByUser retrieves the account owned by userID.
	// Returns ErrAccountNotFound when the user has no account.
	AccountByUser(ctx context.Context, userID string) (*Account, error)

	// Balance returns the current balance in paise for userID's account.
	Balance(ctx context.Context, userID string) (int64, error)

	// RecentTransactions returns up to 'limit' ledger entries for
	// userID's account, newest first.
	RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error)

	// Transfer debits userID's account and, when the payee resolves to
	// another account here, credits it, all in one transaction. The
	// returned entry is the debit leg carrying the shared reference.
	Transfer(ctx context.Context, userID, payee string, amountPaise int64, channel, note string) (*Transaction, error)

	// CreateReminder inserts a new reminder and fills in its ID.
	CreateReminder(ctx context.Context, reminder *Reminder) error

	// RemindersByUser returns the user's pending reminders, soonest due first.
	RemindersByUser(ctx context.Context, userID string) ([]Reminder, error)

	// DeleteReminder removes a reminder owned by userID.
	// Returns ErrReminderNotFound when no such reminder exists.
	DeleteReminder(ctx context.Context, userID string, id uint) error

	// DueReminders returns reminders due at or before 'now' that have
	// not been notified yet.
	DueReminders(ctx context.Context, now time.Time) ([]Reminder, error)

	// MarkReminderNotified records that the due-scan fired for a reminder.
	MarkReminderNotified(ctx context.Context, id uint) error

	// SaveFeedback inserts a feedback record.
	SaveFeedback(ctx context.Context, fb *Feedback) error

	// SaveChatMessage persists one turn of a chat conversation.
	SaveChatMessage(ctx context.Context, msg *ChatMessage) error

	// RecentChatMessages returns up to 'limit' messages for a chat,
	// newest first. Callers reverse for prompt order.
	RecentChatMessages(ctx context.Context, chatID int64, limit int) ([]ChatMessage, error)

	// LatestStructured returns the structured payload attached to the
	// most recent assistant message in a chat, or "" when that reply
	// carried none. A reply without a payload supersedes earlier cards.
	LatestStructured(ctx context.Context, chatID int64) (string, error)

	// RunMaintenance performs database maintenance (VACUUM, ANALYZE).
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const accountColumns = `id, created_at, updated_at, user_id, number, holder_name, type, upi_handle, balance_paise`

func (s *sqlxStore) AccountByUser(ctx context.Context, userID string) (*Account, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var account Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`

	err := s.db.GetContext(ctx, &account, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("no account for user %s: %w", userID, ErrAccountNotFound)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting account", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get account for user %s: %w", userID, err)
	}

	return &account, nil
}

func (s *sqlxStore) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user_id cannot be empty")
	}

	var balance int64
	err := s.db.GetContext(ctx, &balance, `SELECT balance_paise FROM accounts WHERE user_id = ?`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("no account for user %s: %w", userID, ErrAccountNotFound)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting balance", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to get balance for user %s: %w", userID, err)
	}

	return balance, nil
}

func (s *sqlxStore) RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	} else if limit > 50 {
		limit = 50
	}

	var entries []Transaction
	query := `
        SELECT t.id, t.created_at, t.account_id, t.reference, t.kind,
               t.amount_paise, t.counterparty, t.channel, t.note, t.timestamp
        FROM transactions t
        JOIN accounts a ON a.id = t.account_id
        WHERE a.user_id = ?
        ORDER BY t.timestamp DESC, t.id DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &entries, query, userID, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent transactions", "user_id", userID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get transactions for user %s: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent transactions", "user_id", userID, "count", len(entries))
	return entries, nil
}

// Transfer moves amountPaise out of userID's account. Both balance
// updates and both ledger legs commit together or not at all.
func (s *sqlxStore) Transfer(ctx context.Context, userID, payee string, amountPaise int64, channel, note string) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}
	if payee == "" {
		return nil, fmt.Errorf("transfer payee cannot be empty")
	}
	if amountPaise <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d paise", amountPaise)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transfer transaction", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var from Account
	err = tx.GetContext(ctx, &from, `SELECT `+accountColumns+` FROM accounts WHERE user_id = ?`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("no account for user %s: %w", userID, ErrAccountNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to load sender account: %w", err)
	}

	if from.BalancePaise < amountPaise {
		return nil, fmt.Errorf("balance %d paise short of %d: %w", from.BalancePaise, amountPaise, ErrInsufficientFunds)
	}

	// The payee may be another account here, matched by UPI handle or
	// account number. External payees get only the debit leg.
	var to *Account
	var dest Account
	err = tx.GetContext(ctx, &dest, `SELECT `+accountColumns+` FROM accounts WHERE upi_handle = ? OR number = ?`, payee, payee)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// External payee.
	case err != nil:
		return nil, fmt.Errorf("failed to resolve payee %s: %w", payee, err)
	default:
		to = &dest
	}
	if to != nil && to.ID == from.ID {
		return nil, ErrSameAccount
	}

	now := time.Now().UTC()
	reference := uuid.NewString()

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_paise = balance_paise - ?, updated_at = ? WHERE id = ?`,
		amountPaise, now, from.ID); err != nil {
		return nil, fmt.Errorf("failed to debit account %d: %w", from.ID, err)
	}

	debit := &Transaction{
		CreatedAt:    now,
		AccountID:    from.ID,
		Reference:    reference,
		Kind:         KindDebit,
		AmountPaise:  amountPaise,
		Counterparty: payee,
		Channel:      channel,
		Note:         note,
		Timestamp:    now,
	}
	if err := insertTransaction(ctx, tx, debit); err != nil {
		return nil, err
	}

	if to != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance_paise = balance_paise + ?, updated_at = ? WHERE id = ?`,
			amountPaise, now, to.ID); err != nil {
			return nil, fmt.Errorf("failed to credit account %d: %w", to.ID, err)
		}

		sender := from.UpiHandle
		if sender == "" {
			sender = from.MaskedNumber()
		}
		credit := &Transaction{
			CreatedAt:    now,
			AccountID:    to.ID,
			Reference:    reference,
			Kind:         KindCredit,
			AmountPaise:  amountPaise,
			Counterparty: sender,
			Channel:      channel,
			Note:         note,
			Timestamp:    now,
		}
		if err := insertTransaction(ctx, tx, credit); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transfer", "user_id", userID, "reference", reference, "error", err)
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Transfer completed",
		"user_id", userID, "reference", reference, "amount_paise", amountPaise, "channel", channel, "internal", to != nil)
	return debit, nil
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, entry *Transaction) error {
	query := `
        INSERT INTO transactions (created_at, account_id, reference, kind, amount_paise, counterparty, channel, note, timestamp)
        VALUES (:created_at, :account_id, :reference, :kind, :amount_paise, :counterparty, :channel, :note, :timestamp);
    `
	result, err := tx.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to insert %s leg: %w", entry.Kind, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		entry.ID = uint(id)
	}
	return nil
}

func (s *sqlxStore) CreateReminder(ctx context.Context, reminder *Reminder) error {
	if reminder == nil {
		return fmt.Errorf("cannot save nil reminder")
	}
	if reminder.UserID == "" {
		return fmt.Errorf("reminder must have a user_id")
	}
	if reminder.Title == "" {
		return fmt.Errorf("reminder must have a title")
	}
	if reminder.DueAt.IsZero() {
		return fmt.Errorf("reminder must have a due time")
	}

	now := time.Now().UTC()
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	query := `
        INSERT INTO reminders (created_at, updated_at, user_id, title, due_at, amount_paise, notified_at)
        VALUES (:created_at, :updated_at, :user_id, :title, :due_at, :amount_paise, :notified_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, reminder)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving reminder", "user_id", reminder.UserID, "error", err)
		return fmt.Errorf("failed to save reminder for user %s: %w", reminder.UserID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		reminder.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Reminder saved", "user_id", reminder.UserID, "reminder_id", reminder.ID)
	return nil
}

const reminderColumns = `id, created_at, updated_at, user_id, title, due_at, amount_paise, notified_at`

func (s *sqlxStore) RemindersByUser(ctx context.Context, userID string) ([]Reminder, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var reminders []Reminder
	query := `SELECT ` + reminderColumns + ` FROM reminders
              WHERE user_id = ? AND notified_at IS NULL
              ORDER BY due_at ASC`

	if err := s.db.SelectContext(ctx, &reminders, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting reminders", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get reminders for user %s: %w", userID, err)
	}

	return reminders, nil
}

func (s *sqlxStore) DeleteReminder(ctx context.Context, userID string, id uint) error {
	if userID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting reminder", "user_id", userID, "reminder_id", id, "error", err)
		return fmt.Errorf("failed to delete reminder %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("reminder %d for user %s: %w", id, userID, ErrReminderNotFound)
	}

	s.logger.DebugContext(ctx, "Reminder deleted", "user_id", userID, "reminder_id", id)
	return nil
}

func (s *sqlxStore) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	var reminders []Reminder
	query := `SELECT ` + reminderColumns + ` FROM reminders
              WHERE notified_at IS NULL AND due_at <= ?
              ORDER BY due_at ASC`

	if err := s.db.SelectContext(ctx, &reminders, query, now.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error getting due reminders", "error", err)
		return nil, fmt.Errorf("failed to get due reminders: %w", err)
	}

	return reminders, nil
}

func (s *sqlxStore) MarkReminderNotified(ctx context.Context, id uint) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET notified_at = ?, updated_at = ? WHERE id = ? AND notified_at IS NULL`, now, now, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking reminder notified", "reminder_id", id, "error", err)
		return fmt.Errorf("failed to mark reminder %d notified: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("reminder %d: %w", id, ErrReminderNotFound)
	}
	return nil
}

func (s *sqlxStore) SaveFeedback(ctx context.Context, fb *Feedback) error {
	if fb == nil {
		return fmt.Errorf("cannot save nil feedback")
	}
	if fb.UserID == "" {
		return fmt.Errorf("feedback must have a user_id")
	}

	fb.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO feedback (created_at, user_id, session_id, rating, comment, language)
        VALUES (:created_at, :user_id, :session_id, :rating, :comment, :language);
    `
	result, err := s.db.NamedExecContext(ctx, query, fb)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving feedback", "user_id", fb.UserID, "error", err)
		return fmt.Errorf("failed to save feedback for user %s: %w", fb.UserID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		fb.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Feedback saved", "user_id", fb.UserID, "rating", fb.Rating)
	return nil
}

func (s *sqlxStore) SaveChatMessage(ctx context.Context, msg *ChatMessage) error {
	if msg == nil {
		return fmt.Errorf("cannot save nil chat message")
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("chat message must have a non-zero chat_id")
	}
	if msg.Content == "" {
		return fmt.Errorf("chat message must have non-empty content")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	msg.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO chat_messages (created_at, chat_id, user_id, role, content, structured, timestamp)
        VALUES (:created_at, :chat_id, :user_id, :role, :content, :structured, :timestamp);
    `
	result, err := s.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving chat message", "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("failed to save chat message (chat %d): %w", msg.ChatID, err)
	}
	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		msg.ID = uint(id)
	}

	return nil
}

func (s *sqlxStore) RecentChatMessages(ctx context.Context, chatID int64, limit int) ([]ChatMessage, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	var messages []ChatMessage
	query := `
        SELECT id, created_at, chat_id, user_id, role, content, structured, timestamp
        FROM chat_messages
        WHERE chat_id = ?
        ORDER BY timestamp DESC, id DESC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &messages, query, chatID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting chat messages", "chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get chat messages for chat %d: %w", chatID, err)
	}

	return messages, nil
}

func (s *sqlxStore) LatestStructured(ctx context.Context, chatID int64) (string, error) {
	if chatID == 0 {
		return "", fmt.Errorf("chat_id cannot be zero")
	}

	var payload string
	query := `SELECT COALESCE(structured, '') FROM chat_messages
              WHERE chat_id = ? AND role = 'assistant'
              ORDER BY id DESC LIMIT 1`

	err := s.db.GetContext(ctx, &payload, query, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting latest structured payload", "chat_id", chatID, "error", err)
		return "", fmt.Errorf("failed to get latest structured payload for chat %d: %w", chatID, err)
	}

	return payload, nil
}

// RunMaintenance executes VACUUM and ANALYZE on the SQLite database.
// VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance...")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (ANALYZE) failed", "error", err)
		return fmt.Errorf("failed to execute ANALYZE: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}
