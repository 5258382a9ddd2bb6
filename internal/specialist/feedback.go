package specialist

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
)

var ratingRe = regexp.MustCompile(`\b([1-5])\b`)

// NewFeedbackSpecialist returns the handler that records user feedback.
func NewFeedbackSpecialist(deps Deps) assistant.SpecialistFunc {
	return feedbackSpecialist{deps}.Handle
}

type feedbackSpecialist struct {
	deps Deps
}

func (h feedbackSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	log := h.deps.Logger.With("specialist", "feedback")
	msg := st.CurrentMessage()

	rating := 0
	if m := ratingRe.FindStringSubmatch(msg); m != nil {
		rating, _ = strconv.Atoi(m[1])
	}

	fb := &banking.Feedback{
		UserID:    st.UserID,
		SessionID: st.SessionID,
		Rating:    rating,
		Comment:   msg,
		Language:  st.Language,
	}
	if err := h.deps.Store.SaveFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	log.InfoContext(ctx, "feedback recorded", "user_id", st.UserID, "rating", rating)

	if rating > 0 {
		return &assistant.Partial{
			Reply: pick(st.Language,
				fmt.Sprintf("Thanks for rating me %d out of 5! Your feedback helps me improve.", rating),
				fmt.Sprintf("मुझे 5 में से %d रेटिंग देने के लिए धन्यवाद! आपकी प्रतिक्रिया से मैं बेहतर होती हूँ।", rating),
			),
		}, nil
	}
	return &assistant.Partial{
		Reply: pick(st.Language,
			"Thank you for the feedback! I've passed it along to the team.",
			"आपकी प्रतिक्रिया के लिए धन्यवाद! मैंने इसे टीम तक पहुंचा दिया है।",
		),
	}, nil
}
