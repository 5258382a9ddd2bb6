package specialist

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/internal/retrieval"
)

type transferCall struct {
	payee   string
	amount  int64
	channel string
	note    string
}

// fakeStore satisfies banking.Store with canned data and call recording.
type fakeStore struct {
	account      *banking.Account
	transactions []banking.Transaction
	reminders    []banking.Reminder
	transferErr  error

	transferred []transferCall
	created     []*banking.Reminder
	deleted     []uint
	notified    []uint
	feedback    []*banking.Feedback
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) AccountByUser(_ context.Context, _ string) (*banking.Account, error) {
	if f.account == nil {
		return nil, banking.ErrAccountNotFound
	}
	return f.account, nil
}

func (f *fakeStore) Balance(_ context.Context, _ string) (int64, error) {
	if f.account == nil {
		return 0, banking.ErrAccountNotFound
	}
	return f.account.BalancePaise, nil
}

func (f *fakeStore) RecentTransactions(_ context.Context, _ string, limit int) ([]banking.Transaction, error) {
	if f.account == nil {
		return nil, banking.ErrAccountNotFound
	}
	if limit > 0 && limit < len(f.transactions) {
		return f.transactions[:limit], nil
	}
	return f.transactions, nil
}

func (f *fakeStore) Transfer(_ context.Context, _ string, payee string, amountPaise int64, channel, note string) (*banking.Transaction, error) {
	f.transferred = append(f.transferred, transferCall{payee, amountPaise, channel, note})
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return &banking.Transaction{
		Reference:    "9f1c2b7e-5a44-4a10-bb3d-6c1d90f4e8a2",
		Kind:         banking.KindDebit,
		AmountPaise:  amountPaise,
		Counterparty: payee,
		Channel:      channel,
		Timestamp:    time.Now().UTC(),
	}, nil
}

func (f *fakeStore) CreateReminder(_ context.Context, reminder *banking.Reminder) error {
	reminder.ID = uint(len(f.created) + 1)
	f.created = append(f.created, reminder)
	return nil
}

func (f *fakeStore) RemindersByUser(_ context.Context, _ string) ([]banking.Reminder, error) {
	return f.reminders, nil
}

func (f *fakeStore) DeleteReminder(_ context.Context, _ string, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) DueReminders(_ context.Context, _ time.Time) ([]banking.Reminder, error) {
	return f.reminders, nil
}

func (f *fakeStore) MarkReminderNotified(_ context.Context, id uint) error {
	f.notified = append(f.notified, id)
	return nil
}

func (f *fakeStore) SaveFeedback(_ context.Context, fb *banking.Feedback) error {
	f.feedback = append(f.feedback, fb)
	return nil
}

func (f *fakeStore) SaveChatMessage(context.Context, *banking.ChatMessage) error { return nil }

func (f *fakeStore) RecentChatMessages(context.Context, int64, int) ([]banking.ChatMessage, error) {
	return nil, nil
}

func (f *fakeStore) LatestStructured(context.Context, int64) (string, error) { return "", nil }

func (f *fakeStore) RunMaintenance(context.Context) error { return nil }

type fakeGemini struct {
	reply    string
	replyErr error

	instructions []string
}

func (f *fakeGemini) ClassifyIntent(context.Context, *assistant.State) (string, error) {
	return "conversation", nil
}

func (f *fakeGemini) GenerateReply(_ context.Context, _ *assistant.State, instruction string) (string, error) {
	f.instructions = append(f.instructions, instruction)
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.reply, nil
}

func (f *fakeGemini) EmbedText(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeRetriever struct {
	docs []retrieval.Document
	err  error

	calls int
}

func (f *fakeRetriever) Search(context.Context, string, int, map[string]string) ([]retrieval.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func testAccount() *banking.Account {
	return &banking.Account{
		ID:           1,
		UserID:       "u1001",
		Number:       "50100123456789",
		HolderName:   "Priya Sharma",
		Type:         "savings",
		UpiHandle:    "priya.sharma@vaani",
		BalancePaise: 12_345_678,
	}
}

func testDeps(store banking.Store) Deps {
	cfg := &config.Config{}
	cfg.Router.AssistantName = "Vaani"
	cfg.Retrieval.TopK = 3
	return Deps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: cfg,
		Store:  store,
	}
}

func testState(msg string) *assistant.State {
	st := &assistant.State{
		Language:  "en-IN",
		UserID:    "u1001",
		SessionID: "session-1",
	}
	st.Append(assistant.RoleUser, msg)
	return st
}

func TestRegisterAll(t *testing.T) {
	t.Parallel()

	registry := RegisterAll(testDeps(&fakeStore{}))

	want := []string{"banking", "upi", "knowledge", "greeting", "feedback", "loans", "investments", "support"}
	if len(registry) != len(want) {
		t.Fatalf("RegisterAll returned %d specialists, want %d", len(registry), len(want))
	}
	for _, key := range want {
		if registry[key] == nil {
			t.Errorf("RegisterAll missing specialist %q", key)
		}
	}
}
