package specialist

import (
	"context"
	"fmt"

	"github.com/vaanihq/vaani/internal/assistant"
)

// NewGreetingSpecialist returns the handler for greetings and small
// talk: a welcome plus a capability summary, no external calls.
func NewGreetingSpecialist(deps Deps) assistant.SpecialistFunc {
	return greetingSpecialist{deps}.Handle
}

type greetingSpecialist struct {
	deps Deps
}

func (h greetingSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	name := h.deps.Config.Router.AssistantName

	greeting := pick(st.Language,
		fmt.Sprintf("Hello! I'm %s, your banking assistant.", name),
		"नमस्ते! मैं वाणी हूँ, आपकी बैंकिंग सहायिका।",
	)
	if who, ok := st.UserContext["name"]; ok && who != "" && !isHindi(st.Language) {
		greeting = fmt.Sprintf("Hello %s! I'm %s, your banking assistant.", who, name)
	}

	return &assistant.Partial{
		Reply: greeting + " " + pick(st.Language,
			"I can check balances, send money, handle UPI payments, set reminders, and answer banking questions. How can I help?",
			"मैं बैलेंस बताना, पैसे भेजना, यूपीआई भुगतान, रिमाइंडर और बैंकिंग सवालों में मदद कर सकती हूँ। बताइए, कैसे मदद करूं?",
		),
	}, nil
}
