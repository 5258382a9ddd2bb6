package specialist

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
)

func TestBankingBalance(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	p, err := handle(context.Background(), testState("what's my balance?"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.StructuredData == nil || p.StructuredData.Type != assistant.TypeBalance {
		t.Fatalf("StructuredData = %+v, want type %q", p.StructuredData, assistant.TypeBalance)
	}
	if got := p.StructuredData.Fields["account"]; got != "XXXX6789" {
		t.Errorf("account field = %v, want XXXX6789", got)
	}
	if got := p.StructuredData.Fields["balancePaise"]; got != int64(12_345_678) {
		t.Errorf("balancePaise field = %v, want 12345678", got)
	}
	if !strings.Contains(p.Reply, "₹1,23,456.78") {
		t.Errorf("reply %q does not carry the formatted balance", p.Reply)
	}
	if strings.Contains(p.Reply, "50100123456789") {
		t.Errorf("reply %q leaks the full account number", p.Reply)
	}
}

func TestBankingBalanceHindi(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	st := testState("मेरा बैलेंस कितना है")
	st.Language = "hi-IN"

	p, err := handle(context.Background(), st)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(p.Reply, "शेष राशि") || !strings.Contains(p.Reply, "₹1,23,456.78") {
		t.Errorf("hindi reply = %q", p.Reply)
	}
}

func TestBankingNoAccount(t *testing.T) {
	t.Parallel()

	handle := NewBankingSpecialist(testDeps(&fakeStore{}))

	p, err := handle(context.Background(), testState("show my balance"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.Reply == "" {
		t.Error("expected a reply explaining no account is linked")
	}
	if p.StructuredData != nil {
		t.Errorf("StructuredData = %+v, want none", p.StructuredData)
	}
}

func TestBankingTransferFlow(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	first, err := handle(context.Background(), testState("send ₹500 to ravi@upi"))
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	card := first.StructuredData
	if card == nil || card.Type != assistant.TypeTransfer {
		t.Fatalf("first turn card = %+v, want type %q", card, assistant.TypeTransfer)
	}
	if card.Fields["status"] != "pendingConfirmation" {
		t.Fatalf("card status = %v, want pendingConfirmation", card.Fields["status"])
	}
	if card.Fields["payee"] != "ravi@upi" || card.Fields["amountPaise"] != int64(50_000) {
		t.Fatalf("card fields = %+v", card.Fields)
	}
	if !strings.Contains(first.Reply, "confirm") {
		t.Errorf("first reply %q does not ask for confirmation", first.Reply)
	}
	if len(store.transferred) != 0 {
		t.Fatal("transfer executed before confirmation")
	}

	second := testState("confirm")
	second.StructuredData = card
	receipt, err := handle(context.Background(), second)
	if err != nil {
		t.Fatalf("confirmation turn: %v", err)
	}
	if len(store.transferred) != 1 {
		t.Fatalf("transfer calls = %d, want 1", len(store.transferred))
	}
	call := store.transferred[0]
	if call.payee != "ravi@upi" || call.amount != 50_000 || call.channel != banking.ChannelUPI {
		t.Errorf("transfer call = %+v", call)
	}
	if receipt.StructuredData == nil || receipt.StructuredData.Type != assistant.TypeTransferReceipt {
		t.Fatalf("receipt card = %+v, want type %q", receipt.StructuredData, assistant.TypeTransferReceipt)
	}
	if receipt.StructuredData.Fields["status"] != "success" {
		t.Errorf("receipt status = %v", receipt.StructuredData.Fields["status"])
	}
	if receipt.StructuredData.Fields["reference"] == "" {
		t.Error("receipt is missing the transaction reference")
	}
}

func TestBankingTransferConfirmRoundTrippedCard(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	first, err := handle(context.Background(), testState("send ₹500 to ravi@upi"))
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	// Clients echo the card back as JSON, so numbers arrive as float64.
	raw, err := json.Marshal(first.StructuredData)
	if err != nil {
		t.Fatalf("marshal card: %v", err)
	}
	var echoed assistant.StructuredData
	if err := json.Unmarshal(raw, &echoed); err != nil {
		t.Fatalf("unmarshal card: %v", err)
	}

	second := testState("confirm")
	second.StructuredData = &echoed
	if _, err := handle(context.Background(), second); err != nil {
		t.Fatalf("confirmation turn: %v", err)
	}
	if len(store.transferred) != 1 || store.transferred[0].amount != 50_000 {
		t.Fatalf("transfer calls = %+v, want one call of 50000 paise", store.transferred)
	}
}

func TestBankingTransferCancel(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	st := testState("cancel")
	st.StructuredData = assistant.NewStructuredData(assistant.TypeTransfer, map[string]any{
		"status": "pendingConfirmation", "payee": "ravi@upi", "amountPaise": int64(50_000),
	})

	p, err := handle(context.Background(), st)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !p.ClearStructured {
		t.Error("cancellation should clear the pending card")
	}
	if len(store.transferred) != 0 {
		t.Error("cancellation must not execute the transfer")
	}
}

func TestBankingTransferCollectsMissingDetails(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	first, err := handle(context.Background(), testState("transfer some money"))
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if first.StructuredData == nil || first.StructuredData.Fields["status"] != "collecting" {
		t.Fatalf("first turn card = %+v, want collecting status", first.StructuredData)
	}

	second := testState("₹500 to ravi@upi")
	second.StructuredData = first.StructuredData
	p, err := handle(context.Background(), second)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if p.StructuredData.Fields["status"] != "pendingConfirmation" {
		t.Errorf("second turn card = %+v, want pendingConfirmation", p.StructuredData.Fields)
	}
	if len(store.transferred) != 0 {
		t.Error("nothing should execute until the user confirms")
	}
}

func TestBankingTransferInsufficientFunds(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount(), transferErr: banking.ErrInsufficientFunds}
	handle := NewBankingSpecialist(testDeps(store))

	st := testState("confirm")
	st.StructuredData = assistant.NewStructuredData(assistant.TypeTransfer, map[string]any{
		"status": "pendingConfirmation", "payee": "ravi@upi", "amountPaise": int64(99_999_900),
	})

	p, err := handle(context.Background(), st)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(p.Reply, "not enough") {
		t.Errorf("reply = %q, want an insufficient-balance explanation", p.Reply)
	}
	if !p.ClearStructured {
		t.Error("failed transfer should drop the pending card")
	}
}

func TestBankingTransactions(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		account: testAccount(),
		transactions: []banking.Transaction{
			{Reference: "r1", Kind: banking.KindDebit, AmountPaise: 50_000, Counterparty: "ravi@upi", Channel: banking.ChannelUPI, Timestamp: time.Now().UTC()},
			{Reference: "r2", Kind: banking.KindCredit, AmountPaise: 250_000, Counterparty: "ACME Payroll", Channel: banking.ChannelIMPS, Timestamp: time.Now().UTC().Add(-24 * time.Hour)},
		},
	}
	handle := NewBankingSpecialist(testDeps(store))

	p, err := handle(context.Background(), testState("show my recent transactions"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.StructuredData == nil || p.StructuredData.Type != assistant.TypeTransactions {
		t.Fatalf("StructuredData = %+v, want type %q", p.StructuredData, assistant.TypeTransactions)
	}
	if got := p.StructuredData.Fields["count"]; got != 2 {
		t.Errorf("count field = %v, want 2", got)
	}
	rows, ok := p.StructuredData.Fields["transactions"].([]map[string]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("transactions field = %+v, want 2 rows", p.StructuredData.Fields["transactions"])
	}
	if rows[0]["amount"] != "₹500.00" {
		t.Errorf("first row amount = %v, want ₹500.00", rows[0]["amount"])
	}
}

func TestBankingReminderCreate(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	p, err := handle(context.Background(), testState("remind me to pay electricity bill tomorrow"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("reminders created = %d, want 1", len(store.created))
	}
	if got := store.created[0].Title; got != "pay electricity bill" {
		t.Errorf("reminder title = %q", got)
	}
	if store.created[0].DueAt.Before(time.Now()) {
		t.Error("reminder due time is in the past")
	}
	if p.StructuredData == nil || p.StructuredData.Type != assistant.TypeReminder {
		t.Fatalf("StructuredData = %+v, want type %q", p.StructuredData, assistant.TypeReminder)
	}
}

func TestBankingReminderListAndDelete(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		account: testAccount(),
		reminders: []banking.Reminder{
			{ID: 11, UserID: "u1001", Title: "Electricity bill", DueAt: time.Now().Add(24 * time.Hour)},
			{ID: 22, UserID: "u1001", Title: "Credit card payment", DueAt: time.Now().Add(48 * time.Hour)},
		},
	}
	handle := NewBankingSpecialist(testDeps(store))

	list, err := handle(context.Background(), testState("show my reminders"))
	if err != nil {
		t.Fatalf("list turn: %v", err)
	}
	if list.StructuredData == nil || list.StructuredData.Type != assistant.TypeReminderManager {
		t.Fatalf("list card = %+v, want type %q", list.StructuredData, assistant.TypeReminderManager)
	}
	if got := list.StructuredData.Fields["count"]; got != 2 {
		t.Errorf("count field = %v, want 2", got)
	}

	del, err := handle(context.Background(), testState("delete reminder 2"))
	if err != nil {
		t.Fatalf("delete turn: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 22 {
		t.Fatalf("deleted IDs = %v, want [22]", store.deleted)
	}
	if !del.ClearStructured {
		t.Error("deletion should clear the reminder card")
	}
}

func TestBankingStatementFlow(t *testing.T) {
	t.Parallel()

	store := &fakeStore{account: testAccount()}
	handle := NewBankingSpecialist(testDeps(store))

	first, err := handle(context.Background(), testState("email my statement for last month as a pdf"))
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	card := first.StructuredData
	if card == nil || card.Type != assistant.TypeStatementRequest {
		t.Fatalf("first turn card = %+v, want type %q", card, assistant.TypeStatementRequest)
	}
	if card.Fields["status"] != "pendingConfirmation" || card.Fields["format"] != "pdf" {
		t.Fatalf("card fields = %+v", card.Fields)
	}

	second := testState("confirm")
	second.StructuredData = card
	p, err := handle(context.Background(), second)
	if err != nil {
		t.Fatalf("confirmation turn: %v", err)
	}
	if p.StatementData == nil {
		t.Fatal("confirmation should produce statement data")
	}
	if p.StatementData.Status != "requested" || p.StatementData.Format != "pdf" {
		t.Errorf("statement data = %+v", p.StatementData)
	}
	if p.StatementData.Account != "XXXX6789" {
		t.Errorf("statement account = %q, want the masked number", p.StatementData.Account)
	}
	if p.StatementData.Reference == "" {
		t.Error("statement data is missing a reference")
	}
	if !p.ClearStructured {
		t.Error("confirmation should clear the statement card")
	}
}
