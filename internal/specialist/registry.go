package specialist

import (
	"github.com/vaanihq/vaani/internal/assistant"
)

// RegisterAll initializes and returns the map of specialists keyed by the
// routing table's specialist names. The dispatcher looks up exactly one
// entry per turn.
func RegisterAll(deps Deps) map[string]assistant.SpecialistFunc {
	specialists := make(map[string]assistant.SpecialistFunc)

	specialists["banking"] = NewBankingSpecialist(deps)
	specialists["upi"] = NewUpiSpecialist(deps)
	specialists["knowledge"] = NewKnowledgeSpecialist(deps)
	specialists["greeting"] = NewGreetingSpecialist(deps)
	specialists["feedback"] = NewFeedbackSpecialist(deps)
	specialists["loans"] = NewLoansSpecialist(deps)
	specialists["investments"] = NewInvestmentsSpecialist(deps)
	specialists["support"] = NewSupportSpecialist(deps)

	return specialists
}
