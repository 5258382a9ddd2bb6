package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vaanihq/vaani/internal/config"
)

// Classifier labels a turn with an intent. Implementations typically call a
// language model; failures and unrecognized labels fall back to the default
// specialist and never surface to the caller.
type Classifier interface {
	ClassifyIntent(ctx context.Context, st *State) (string, error)
}

// intentTable maps classifier labels to specialist keys. Labels outside the
// table route to the default specialist.
var intentTable = map[string]string{
	"banking_operation":  "banking",
	"upi_payment":        "upi",
	"general_faq":        "knowledge",
	"greeting":           "greeting",
	"feedback":           "feedback",
	"loan_inquiry":       "loans",
	"investment_inquiry": "investments",
	"customer_support":   "support",
}

// IntentLabels lists the classifier labels the routing table recognizes.
func IntentLabels() []string {
	labels := make([]string, 0, len(intentTable))
	for label := range intentTable {
		labels = append(labels, label)
	}
	return labels
}

// Router resolves the specialist for a turn. Explicit mode flags and wake
// phrase heuristics outrank the classifier: they are higher-confidence,
// lower-latency signals and must stay stable when the classifier is flaky.
type Router struct {
	classifier        Classifier
	timeout           time.Duration
	defaultSpecialist string
	balanceKeywords   []string
	wakePhrases       []string
	log               *slog.Logger
}

// NewRouter builds a router over the given classifier. Keyword lists come
// from configuration so deployments can tune the bilingual trigger sets.
func NewRouter(classifier Classifier, cfg config.RouterConfig, timeout time.Duration, log *slog.Logger) *Router {
	r := &Router{
		classifier:        classifier,
		timeout:           timeout,
		defaultSpecialist: cfg.DefaultSpecialist,
		log:               log.With("component", "router"),
	}
	for _, kw := range cfg.BalanceKeywords {
		r.balanceKeywords = append(r.balanceKeywords, strings.ToLower(kw))
	}
	for _, wp := range cfg.WakePhrases {
		r.wakePhrases = append(r.wakePhrases, strings.ToLower(wp))
	}
	return r
}

// Resolve picks the specialist key for the current turn. Rules apply in
// strict priority order, first match wins:
//
//  1. Sticky UPI mode plus a balance/payment keyword forces "upi".
//  2. A wake phrase switches UPI mode on and routes to "upi".
//  3. Without an explicit upiMode from the caller, UPI activation hints in
//     recent assistant messages or the prior structured payload restore the
//     sticky mode, then rule 1 is re-applied.
//  4. Otherwise the classifier label is mapped through the routing table.
//  5. Classifier failure or an unknown label routes to the default
//     specialist.
//
// Resolve may set st.UpiMode (rules 2 and 3) but never fails.
func (r *Router) Resolve(ctx context.Context, st *State) string {
	msg := strings.ToLower(st.CurrentMessage())

	if st.UpiMode && r.hasBalanceKeyword(msg) {
		return "upi"
	}

	if r.hasWakePhrase(msg) {
		st.UpiMode = true
		return "upi"
	}

	if !st.UpiModeSupplied && !st.UpiMode && r.inferUpiMode(st) {
		st.UpiMode = true
		if r.hasBalanceKeyword(msg) {
			return "upi"
		}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	label, err := r.classifier.ClassifyIntent(cctx, st)
	if err != nil {
		r.log.WarnContext(ctx, "classification failed, using default specialist",
			"error", err, "default", r.defaultSpecialist)
		return r.defaultSpecialist
	}
	key, ok := intentTable[label]
	if !ok {
		r.log.WarnContext(ctx, "unrecognized intent label, using default specialist",
			"label", label, "default", r.defaultSpecialist)
		return r.defaultSpecialist
	}
	return key
}

func (r *Router) hasBalanceKeyword(lowerMsg string) bool {
	for _, kw := range r.balanceKeywords {
		if strings.Contains(lowerMsg, kw) {
			return true
		}
	}
	return false
}

func (r *Router) hasWakePhrase(lowerMsg string) bool {
	for _, wp := range r.wakePhrases {
		if strings.Contains(lowerMsg, wp) {
			return true
		}
	}
	return false
}

// inferUpiMode scans the prior structured payload and the last few
// assistant messages for signs that UPI mode was active when the caller
// did not say either way.
func (r *Router) inferUpiMode(st *State) bool {
	if sd := st.StructuredData; sd != nil {
		switch sd.Type {
		case TypeUpiModeActivation, TypeUpiPaymentCard, TypeUpiBalanceCheck:
			return true
		}
	}
	scanned := 0
	for i := len(st.Messages) - 1; i >= 0 && scanned < 3; i-- {
		if st.Messages[i].Role != RoleAssistant {
			continue
		}
		scanned++
		lower := strings.ToLower(st.Messages[i].Text)
		if strings.Contains(lower, "upi mode") || strings.Contains(lower, "यूपीआई मोड") {
			return true
		}
	}
	return false
}
