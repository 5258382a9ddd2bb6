package specialist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vaanihq/vaani/internal/assistant"
)

const (
	supportPhone = "1800 419 0000"
	supportEmail = "care@vaanibank.in"
)

// NewSupportSpecialist returns the handler that escalates to human
// support with a ticket reference.
func NewSupportSpecialist(deps Deps) assistant.SpecialistFunc {
	return supportSpecialist{deps}.Handle
}

type supportSpecialist struct {
	deps Deps
}

func (h supportSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	ticket := uuid.NewString()

	h.deps.Logger.InfoContext(ctx, "support ticket raised",
		"specialist", "support", "user_id", st.UserID, "ticket_id", ticket)

	return &assistant.Partial{
		Reply: pick(st.Language,
			fmt.Sprintf("I've raised support ticket %s. Our team will call you back within 24 hours. For urgent help, call %s any time.", shortRef(ticket), supportPhone),
			"मैंने आपका सपोर्ट टिकट बना दिया है। हमारी टीम 24 घंटे के भीतर आपसे संपर्क करेगी। टिकट और हेल्पलाइन विवरण कार्ड में हैं।",
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeCustomerSupport, map[string]any{
			"ticketId": ticket,
			"phone":    supportPhone,
			"email":    supportEmail,
			"hours":    "24x7",
		}),
	}, nil
}
