package banking

import (
	"database/sql"
	"time"
)

// Account represents a customer's bank account. Balances are stored in
// paise so arithmetic stays exact; render as rupees only at the edge.
type Account struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID       string `db:"user_id"`
	Number       string `db:"number"`
	HolderName   string `db:"holder_name"`
	Type         string `db:"type"`
	UpiHandle    string `db:"upi_handle"`
	BalancePaise int64  `db:"balance_paise"`
}

// MaskedNumber returns the account number with all but the last four
// digits hidden, the only form that may appear in replies or logs.
func (a *Account) MaskedNumber() string {
	if len(a.Number) <= 4 {
		return a.Number
	}
	return "XXXX" + a.Number[len(a.Number)-4:]
}

// Transaction is a single ledger entry against an account.
type Transaction struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	AccountID    uint      `db:"account_id"`
	Reference    string    `db:"reference"`
	Kind         string    `db:"kind"`
	AmountPaise  int64     `db:"amount_paise"`
	Counterparty string    `db:"counterparty"`
	Channel      string    `db:"channel"`
	Note         string    `db:"note"`
	Timestamp    time.Time `db:"timestamp"`
}

// Transaction kinds.
const (
	KindDebit  = "debit"
	KindCredit = "credit"
)

// Transfer channels.
const (
	ChannelUPI  = "upi"
	ChannelIMPS = "imps"
)

// Reminder is a user-scheduled payment or task reminder. NotifiedAt is
// set once the due-scan has fired for it.
type Reminder struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID      string        `db:"user_id"`
	Title       string        `db:"title"`
	DueAt       time.Time     `db:"due_at"`
	AmountPaise sql.NullInt64 `db:"amount_paise"`
	NotifiedAt  sql.NullTime  `db:"notified_at"`
}

// Feedback stores a user's rating and free-form comment about the
// assistant.
type Feedback struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	UserID    string `db:"user_id"`
	SessionID string `db:"session_id"`
	Rating    int    `db:"rating"`
	Comment   string `db:"comment"`
	Language  string `db:"language"`
}

// ChatMessage persists one turn of a Telegram conversation so the
// handler can rebuild history and re-supply the last structured payload.
type ChatMessage struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID     int64          `db:"chat_id"`
	UserID     string         `db:"user_id"`
	Role       string         `db:"role"`
	Content    string         `db:"content"`
	Structured sql.NullString `db:"structured"`
	Timestamp  time.Time      `db:"timestamp"`
}
