package specialist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
)

// NewBankingSpecialist returns the handler for core banking operations:
// balance, recent transactions, transfers, statements, and reminders.
func NewBankingSpecialist(deps Deps) assistant.SpecialistFunc {
	return bankingSpecialist{deps}.Handle
}

type bankingSpecialist struct {
	deps Deps
}

func (h bankingSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	log := h.deps.Logger.With("specialist", "banking")
	lower := strings.ToLower(st.CurrentMessage())

	// A pending interactive card owns the turn.
	if sd := st.StructuredData; sd != nil {
		switch sd.Type {
		case assistant.TypeTransfer:
			return h.resolveTransfer(ctx, st, log)
		case assistant.TypeStatementRequest:
			return h.resolveStatement(ctx, st, log)
		case assistant.TypeReminderManager:
			return h.reminders(ctx, st, log)
		}
	}

	switch {
	case hasAny(lower, "statement", "स्टेटमेंट", "विवरण"):
		return h.startStatement(ctx, st, log)
	case hasAny(lower, "remind", "रिमाइंडर", "याद"):
		return h.reminders(ctx, st, log)
	case hasAny(lower, "transaction", "history", "spent", "लेन-देन", "खर्च"):
		return h.transactions(ctx, st, log)
	case hasAny(lower, "transfer", "send", "pay", "भेज", "ट्रांसफर", "भुगतान"):
		return h.buildTransfer(ctx, st, nil, log)
	case hasAny(lower, "balance", "बैलेंस", "शेष", "कितने पैसे"):
		return h.balance(ctx, st, log)
	default:
		return h.overview(st), nil
	}
}

func (h bankingSpecialist) balance(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	account, err := h.deps.Store.AccountByUser(ctx, st.UserID)
	if errors.Is(err, banking.ErrAccountNotFound) {
		return &assistant.Partial{Reply: noAccountReply(st.Language)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("balance lookup: %w", err)
	}

	log.DebugContext(ctx, "balance looked up", "user_id", st.UserID)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Your %s account %s has a balance of %s.",
				account.Type, account.MaskedNumber(), formatRupees(account.BalancePaise)),
			fmt.Sprintf("आपके %s खाते %s में शेष राशि %s है।",
				accountTypeHindi(account.Type), account.MaskedNumber(), formatRupees(account.BalancePaise)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeBalance, map[string]any{
			"account":      account.MaskedNumber(),
			"holderName":   account.HolderName,
			"accountType":  account.Type,
			"balance":      formatRupees(account.BalancePaise),
			"balancePaise": account.BalancePaise,
		}),
	}, nil
}

func (h bankingSpecialist) transactions(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	entries, err := h.deps.Store.RecentTransactions(ctx, st.UserID, 5)
	if errors.Is(err, banking.ErrAccountNotFound) {
		return &assistant.Partial{Reply: noAccountReply(st.Language)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transactions lookup: %w", err)
	}
	if len(entries) == 0 {
		return &assistant.Partial{Reply: pick(st.Language,
			"You have no transactions yet.",
			"आपका अभी तक कोई लेन-देन नहीं हुआ है।",
		)}, nil
	}

	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"date":         formatDay(e.Timestamp, st.Language),
			"kind":         e.Kind,
			"amount":       formatRupees(e.AmountPaise),
			"counterparty": e.Counterparty,
			"note":         e.Note,
		})
	}

	log.DebugContext(ctx, "transactions listed", "user_id", st.UserID, "count", len(entries))
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Here are your last %d transactions.", len(entries)),
			fmt.Sprintf("आपके पिछले %d लेन-देन यहाँ हैं।", len(entries)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeTransactions, map[string]any{
			"transactions": rows,
			"count":        len(entries),
		}),
	}, nil
}

// buildTransfer collects payee and amount, carrying forward whatever the
// prior card already holds, and asks for the missing piece or for
// confirmation.
func (h bankingSpecialist) buildTransfer(ctx context.Context, st *assistant.State, prior *assistant.StructuredData, log *slog.Logger) (*assistant.Partial, error) {
	msg := st.CurrentMessage()
	amount, haveAmount := parseAnyAmountPaise(msg)
	payee, havePayee := parsePayee(msg)

	if prior != nil {
		if !haveAmount {
			if v, ok := fieldInt64(prior.Fields, "amountPaise"); ok && v > 0 {
				amount, haveAmount = v, true
			}
		}
		if !havePayee {
			if v := fieldString(prior.Fields, "payee"); v != "" {
				payee, havePayee = v, true
			}
		}
	}

	fields := map[string]any{"status": "collecting"}
	if haveAmount {
		fields["amountPaise"] = amount
		fields["amount"] = formatRupees(amount)
	}
	if havePayee {
		fields["payee"] = payee
	}

	var reply string
	switch {
	case haveAmount && havePayee:
		fields["status"] = "pendingConfirmation"
		reply = pick(st.Language,
			fmt.Sprintf("Send %s to %s? Reply 'confirm' to proceed or 'cancel' to stop.", formatRupees(amount), payee),
			fmt.Sprintf("क्या मैं %s भेज दूं? प्राप्तकर्ता कार्ड में है। भेजने के लिए 'हाँ' लिखें, रोकने के लिए 'रद्द' लिखें।", formatRupees(amount)),
		)
	case haveAmount:
		reply = pick(st.Language,
			fmt.Sprintf("Who should receive %s? Share their UPI ID or name.", formatRupees(amount)),
			fmt.Sprintf("%s किसे भेजूं? यूपीआई आईडी या नाम बताएं।", formatRupees(amount)),
		)
	case havePayee:
		reply = pick(st.Language,
			fmt.Sprintf("How much should I send to %s?", payee),
			"कितनी राशि भेजूं? जैसे ₹500 लिखें।",
		)
	default:
		reply = pick(st.Language,
			"Tell me the amount and the payee, e.g. \"send ₹500 to ramesh@upi\".",
			"राशि और प्राप्तकर्ता बताएं, जैसे \"रवि को ₹500 भेजो\"।",
		)
	}

	log.DebugContext(ctx, "transfer card updated",
		"user_id", st.UserID, "have_amount", haveAmount, "have_payee", havePayee)
	return &assistant.Partial{
		Reply:          reply,
		StructuredData: assistant.NewStructuredData(assistant.TypeTransfer, fields),
	}, nil
}

// resolveTransfer handles the turn after a transfer card was shown:
// confirmation executes it, cancellation drops it, anything else updates
// the card with newly parsed details.
func (h bankingSpecialist) resolveTransfer(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	msg := st.CurrentMessage()
	card := st.StructuredData

	if isCancellation(msg) {
		return &assistant.Partial{
			Reply:           pick(st.Language, "Okay, I've cancelled the transfer.", "ठीक है, ट्रांसफर रद्द कर दिया।"),
			ClearStructured: true,
		}, nil
	}

	amount, haveAmount := fieldInt64(card.Fields, "amountPaise")
	payee := fieldString(card.Fields, "payee")
	ready := fieldString(card.Fields, "status") == "pendingConfirmation" && haveAmount && amount > 0 && payee != ""

	if !isConfirmation(msg) || !ready {
		return h.buildTransfer(ctx, st, card, log)
	}

	channel := banking.ChannelIMPS
	if strings.Contains(payee, "@") {
		channel = banking.ChannelUPI
	}

	entry, err := h.deps.Store.Transfer(ctx, st.UserID, payee, amount, channel, "chat transfer")
	switch {
	case errors.Is(err, banking.ErrAccountNotFound):
		return &assistant.Partial{Reply: noAccountReply(st.Language), ClearStructured: true}, nil
	case errors.Is(err, banking.ErrInsufficientFunds):
		return &assistant.Partial{
			Reply: pick(st.Language,
				fmt.Sprintf("Your balance is not enough for this transfer of %s.", formatRupees(amount)),
				fmt.Sprintf("इस %s के ट्रांसफर के लिए आपका शेष पर्याप्त नहीं है।", formatRupees(amount)),
			),
			ClearStructured: true,
		}, nil
	case errors.Is(err, banking.ErrSameAccount):
		return &assistant.Partial{
			Reply: pick(st.Language,
				"That payee is your own account, so there is nothing to transfer.",
				"यह आपका ही खाता है, इसलिए ट्रांसफर की ज़रूरत नहीं है।",
			),
			ClearStructured: true,
		}, nil
	case err != nil:
		return nil, fmt.Errorf("transfer execution: %w", err)
	}

	fields := map[string]any{
		"reference":   entry.Reference,
		"payee":       payee,
		"amount":      formatRupees(amount),
		"amountPaise": amount,
		"channel":     channel,
		"status":      "success",
	}
	if balance, err := h.deps.Store.Balance(ctx, st.UserID); err == nil {
		fields["balance"] = formatRupees(balance)
	}

	log.InfoContext(ctx, "transfer executed", "user_id", st.UserID, "reference", entry.Reference)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Done! %s sent to %s. Reference %s.", formatRupees(amount), payee, shortRef(entry.Reference)),
			fmt.Sprintf("हो गया! %s भेज दिए गए। संदर्भ कार्ड में है।", formatRupees(amount)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeTransferReceipt, fields),
	}, nil
}

func (h bankingSpecialist) startStatement(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	account, err := h.deps.Store.AccountByUser(ctx, st.UserID)
	if errors.Is(err, banking.ErrAccountNotFound) {
		return &assistant.Partial{Reply: noAccountReply(st.Language)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statement account lookup: %w", err)
	}

	lower := strings.ToLower(st.CurrentMessage())
	format := "pdf"
	if strings.Contains(lower, "csv") {
		format = "csv"
	}
	from, to := statementPeriod(lower, time.Now())

	log.DebugContext(ctx, "statement requested", "user_id", st.UserID, "format", format)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Email your %s statement for %s to %s as %s? Reply 'confirm' to proceed or 'cancel' to stop.",
				account.MaskedNumber(), from.Format("2 Jan"), to.Format("2 Jan"), strings.ToUpper(format)),
			"क्या मैं आपका स्टेटमेंट पंजीकृत ईमेल पर भेज दूं? अवधि कार्ड में है। भेजने के लिए 'हाँ' लिखें, रोकने के लिए 'रद्द' लिखें।",
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeStatementRequest, map[string]any{
			"account":  account.MaskedNumber(),
			"format":   format,
			"fromDate": from.Format("2006-01-02"),
			"toDate":   to.Format("2006-01-02"),
			"status":   "pendingConfirmation",
		}),
	}, nil
}

func (h bankingSpecialist) resolveStatement(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	msg := st.CurrentMessage()
	card := st.StructuredData

	if isCancellation(msg) {
		return &assistant.Partial{
			Reply:           pick(st.Language, "Okay, I won't send the statement.", "ठीक है, स्टेटमेंट नहीं भेजूंगी।"),
			ClearStructured: true,
		}, nil
	}
	if !isConfirmation(msg) {
		return h.startStatement(ctx, st, log)
	}

	reference := uuid.NewString()
	log.InfoContext(ctx, "statement dispatch queued", "user_id", st.UserID, "reference", reference)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Your statement is on its way to your registered email. Reference %s.", shortRef(reference)),
			"आपका स्टेटमेंट आपके पंजीकृत ईमेल पर भेजा जा रहा है। संदर्भ कार्ड में है।",
		),
		ClearStructured: true,
		StatementData: &assistant.StatementData{
			Account:   fieldString(card.Fields, "account"),
			FromDate:  fieldString(card.Fields, "fromDate"),
			ToDate:    fieldString(card.Fields, "toDate"),
			Format:    fieldString(card.Fields, "format"),
			Status:    "requested",
			Reference: reference,
		},
	}, nil
}

var reminderIndexRe = regexp.MustCompile(`\b([0-9]{1,2})\b`)

func (h bankingSpecialist) reminders(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	lower := strings.ToLower(st.CurrentMessage())
	switch {
	case hasAny(lower, "delete", "remove", "hata", "हटा") || hasToken(lower, "cancel", "रद्द"):
		return h.deleteReminder(ctx, st, log)
	case hasAny(lower, "show", "list", "dikha", "दिखा", "मेरे रिमाइंडर", "kaun"):
		return h.listReminders(ctx, st, log)
	default:
		return h.createReminder(ctx, st, log)
	}
}

func (h bankingSpecialist) createReminder(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	msg := st.CurrentMessage()
	due := parseDueTime(msg, time.Now())

	reminder := &banking.Reminder{
		UserID: st.UserID,
		Title:  reminderTitle(msg),
		DueAt:  due.UTC(),
	}
	if amount, ok := parseAmountPaise(msg); ok {
		reminder.AmountPaise = sql.NullInt64{Int64: amount, Valid: true}
	}

	if err := h.deps.Store.CreateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	fields := map[string]any{
		"title": reminder.Title,
		"dueAt": due.Format(time.RFC3339),
		"due":   formatDay(due, st.Language) + ", " + formatClock(due, st.Language),
	}
	if reminder.AmountPaise.Valid {
		fields["amount"] = formatRupees(reminder.AmountPaise.Int64)
	}

	log.InfoContext(ctx, "reminder created", "user_id", st.UserID, "reminder_id", reminder.ID)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Reminder set for %s, %s.", due.Format("2 Jan"), due.In(istZone).Format("3:04 PM")),
			fmt.Sprintf("ठीक है, मैं आपको %s को %s याद दिला दूंगी।", formatDay(due, st.Language), formatClock(due, st.Language)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeReminder, fields),
	}, nil
}

func (h bankingSpecialist) listReminders(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	reminders, err := h.deps.Store.RemindersByUser(ctx, st.UserID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	if len(reminders) == 0 {
		return &assistant.Partial{Reply: pick(st.Language,
			"You have no reminders set.",
			"आपका कोई रिमाइंडर नहीं है।",
		)}, nil
	}

	rows := make([]map[string]any, 0, len(reminders))
	for i, r := range reminders {
		row := map[string]any{
			"position": i + 1,
			"id":       r.ID,
			"title":    r.Title,
			"due":      formatDay(r.DueAt, st.Language) + ", " + formatClock(r.DueAt, st.Language),
		}
		if r.AmountPaise.Valid {
			row["amount"] = formatRupees(r.AmountPaise.Int64)
		}
		rows = append(rows, row)
	}

	log.DebugContext(ctx, "reminders listed", "user_id", st.UserID, "count", len(reminders))
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("You have %d reminders. Say \"delete reminder 2\" to remove one.", len(reminders)),
			fmt.Sprintf("आपके %d रिमाइंडर हैं। किसी को हटाने के लिए उसका नंबर बताएं।", len(reminders)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeReminderManager, map[string]any{
			"reminders": rows,
			"count":     len(reminders),
		}),
	}, nil
}

func (h bankingSpecialist) deleteReminder(ctx context.Context, st *assistant.State, log *slog.Logger) (*assistant.Partial, error) {
	reminders, err := h.deps.Store.RemindersByUser(ctx, st.UserID)
	if err != nil {
		return nil, fmt.Errorf("delete reminder: %w", err)
	}
	if len(reminders) == 0 {
		return &assistant.Partial{
			Reply:           pick(st.Language, "You have no reminders to delete.", "हटाने के लिए कोई रिमाइंडर नहीं है।"),
			ClearStructured: true,
		}, nil
	}

	index := -1
	if m := reminderIndexRe.FindStringSubmatch(st.CurrentMessage()); m != nil {
		index, _ = strconv.Atoi(m[1])
	} else if len(reminders) == 1 {
		index = 1
	}
	if index < 1 || index > len(reminders) {
		return h.listReminders(ctx, st, log)
	}

	target := reminders[index-1]
	if err := h.deps.Store.DeleteReminder(ctx, st.UserID, target.ID); err != nil {
		if errors.Is(err, banking.ErrReminderNotFound) {
			return h.listReminders(ctx, st, log)
		}
		return nil, fmt.Errorf("delete reminder: %w", err)
	}

	log.InfoContext(ctx, "reminder deleted", "user_id", st.UserID, "reminder_id", target.ID)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Deleted the reminder \"%s\".", target.Title),
			"रिमाइंडर हटा दिया गया है।",
		),
		ClearStructured: true,
	}, nil
}

func (h bankingSpecialist) overview(st *assistant.State) *assistant.Partial {
	return &assistant.Partial{
		Reply: pick(st.Language,
			"I can check your balance, list recent transactions, send money, email statements, and manage payment reminders. What would you like?",
			"मैं आपका बैलेंस बता सकती हूँ, पिछले लेन-देन दिखा सकती हूँ, पैसे भेज सकती हूँ, स्टेटमेंट ईमेल कर सकती हूँ और रिमाइंडर संभाल सकती हूँ। बताइए क्या करना है?",
		),
	}
}

// reminderTitle strips the instruction framing and scheduling phrases,
// leaving the thing to be reminded about.
func reminderTitle(msg string) string {
	title := msg
	for _, prefix := range []string{"remind me to ", "remind me ", "मुझे "} {
		if rest, ok := cutPrefixFold(title, prefix); ok {
			title = rest
			break
		}
	}
	for _, phrase := range []string{"याद दिलाना", "याद दिलाओ", "याद दिला देना", "tomorrow", "today", "next week", "day after"} {
		title = replaceFold(title, phrase, "")
	}
	title = strings.Trim(strings.Join(strings.Fields(title), " "), " .,।")
	if title == "" {
		return "Payment reminder"
	}
	return title
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

func replaceFold(s, old, repl string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(old))
	if idx < 0 {
		return s
	}
	return s[:idx] + repl + s[idx+len(old):]
}

// statementPeriod resolves the requested range: the previous calendar
// month when asked for, otherwise the trailing thirty days.
func statementPeriod(lower string, now time.Time) (time.Time, time.Time) {
	now = now.In(istZone)
	if strings.Contains(lower, "last month") || strings.Contains(lower, "पिछले महीने") || strings.Contains(lower, "pichle mahine") {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, istZone)
		return first.AddDate(0, -1, 0), first.AddDate(0, 0, -1)
	}
	return now.AddDate(0, 0, -30), now
}

func noAccountReply(language string) string {
	return pick(language,
		"I couldn't find an account linked to your profile. Please link one from the app first.",
		"आपकी प्रोफ़ाइल से कोई खाता जुड़ा नहीं मिला। कृपया पहले ऐप से खाता जोड़ें।",
	)
}

func accountTypeHindi(accountType string) string {
	switch accountType {
	case "savings":
		return "बचत"
	case "current":
		return "चालू"
	default:
		return accountType
	}
}

func shortRef(reference string) string {
	if len(reference) > 8 {
		return reference[:8]
	}
	return reference
}
