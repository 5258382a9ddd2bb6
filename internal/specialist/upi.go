package specialist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
)

// NewUpiSpecialist returns the handler for UPI mode: activation,
// one-shot payments, and quick balance checks. UPI cards are
// display-only, so a payment needs amount and payee in the same message.
func NewUpiSpecialist(deps Deps) assistant.SpecialistFunc {
	return upiSpecialist{deps}.Handle
}

type upiSpecialist struct {
	deps Deps
}

func (h upiSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	log := h.deps.Logger.With("specialist", "upi")
	msg := st.CurrentMessage()
	lower := strings.ToLower(msg)

	if hasToken(lower, "exit", "band", "off", "बंद") || hasAny(lower, "बंद कर") {
		log.InfoContext(ctx, "upi mode switched off", "user_id", st.UserID)
		return &assistant.Partial{
			Reply: pick(st.Language,
				"UPI mode is off now. Regular banking continues as usual.",
				"यूपीआई मोड बंद कर दिया है। सामान्य बैंकिंग जारी रख सकते हैं।",
			),
			UpiMode: assistant.BoolPtr(false),
		}, nil
	}

	if hasAny(lower, "balance", "बैलेंस", "शेष") {
		return h.balanceCheck(ctx, st)
	}

	amount, haveAmount := parseAnyAmountPaise(msg)
	payee, havePayee := parsePayee(msg)
	switch {
	case haveAmount && havePayee:
		return h.pay(ctx, st, amount, payee)
	case haveAmount || havePayee:
		return &assistant.Partial{
			Reply: pick(st.Language,
				"For a UPI payment, tell me the amount and the payee together, e.g. \"pay ₹500 to ramesh@upi\".",
				"यूपीआई भुगतान के लिए राशि और प्राप्तकर्ता एक साथ बताएं, जैसे \"रवि को ₹500 भेजो\"।",
			),
		}, nil
	}

	// Nothing actionable in the message; this covers fresh activation
	// through the wake phrase as well.
	return &assistant.Partial{
		Reply: pick(st.Language,
			"UPI mode is on. Say \"pay ₹500 to ramesh@upi\" to pay, or ask for your balance.",
			"यूपीआई मोड चालू है। भुगतान के लिए राशि और यूपीआई आईडी एक साथ बताएं, या अपना बैलेंस पूछें।",
		),
		UpiMode:        assistant.BoolPtr(true),
		StructuredData: assistant.NewStructuredData(assistant.TypeUpiModeActivation, map[string]any{"active": true}),
	}, nil
}

func (h upiSpecialist) balanceCheck(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	account, err := h.deps.Store.AccountByUser(ctx, st.UserID)
	if errors.Is(err, banking.ErrAccountNotFound) {
		return &assistant.Partial{Reply: noAccountReply(st.Language)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("upi balance lookup: %w", err)
	}

	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Your UPI-linked account %s has %s available.", account.MaskedNumber(), formatRupees(account.BalancePaise)),
			fmt.Sprintf("आपके खाते %s में %s उपलब्ध हैं।", account.MaskedNumber(), formatRupees(account.BalancePaise)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeUpiBalanceCheck, map[string]any{
			"account":      account.MaskedNumber(),
			"upiHandle":    account.UpiHandle,
			"balance":      formatRupees(account.BalancePaise),
			"balancePaise": account.BalancePaise,
		}),
	}, nil
}

func (h upiSpecialist) pay(ctx context.Context, st *assistant.State, amountPaise int64, payee string) (*assistant.Partial, error) {
	log := h.deps.Logger.With("specialist", "upi")

	entry, err := h.deps.Store.Transfer(ctx, st.UserID, payee, amountPaise, banking.ChannelUPI, "upi payment")
	switch {
	case errors.Is(err, banking.ErrAccountNotFound):
		return &assistant.Partial{Reply: noAccountReply(st.Language)}, nil
	case errors.Is(err, banking.ErrInsufficientFunds):
		return &assistant.Partial{
			Reply: pick(st.Language,
				fmt.Sprintf("Your balance is not enough for this payment of %s.", formatRupees(amountPaise)),
				fmt.Sprintf("इस %s के भुगतान के लिए आपका शेष पर्याप्त नहीं है।", formatRupees(amountPaise)),
			),
			StructuredData: assistant.NewStructuredData(assistant.TypeUpiPaymentCard, map[string]any{
				"payee":  payee,
				"amount": formatRupees(amountPaise),
				"status": "failed",
				"reason": "insufficientFunds",
			}),
		}, nil
	case errors.Is(err, banking.ErrSameAccount):
		return &assistant.Partial{
			Reply: pick(st.Language,
				"That payee is your own account, so there is nothing to pay.",
				"यह आपका ही खाता है, इसलिए भुगतान की ज़रूरत नहीं है।",
			),
		}, nil
	case err != nil:
		return nil, fmt.Errorf("upi payment: %w", err)
	}

	fields := map[string]any{
		"payee":       payee,
		"amount":      formatRupees(amountPaise),
		"amountPaise": amountPaise,
		"reference":   entry.Reference,
		"status":      "success",
	}
	if balance, err := h.deps.Store.Balance(ctx, st.UserID); err == nil {
		fields["balance"] = formatRupees(balance)
	}

	log.InfoContext(ctx, "upi payment executed", "user_id", st.UserID, "reference", entry.Reference)
	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("Paid %s to %s via UPI. Reference %s.", formatRupees(amountPaise), payee, shortRef(entry.Reference)),
			fmt.Sprintf("%s का यूपीआई भुगतान हो गया। संदर्भ कार्ड में है।", formatRupees(amountPaise)),
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeUpiPaymentCard, fields),
	}, nil
}
