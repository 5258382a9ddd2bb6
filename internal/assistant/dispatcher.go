package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SpecialistFunc handles one category of user intent. It reads the turn
// state and returns the mutation to merge; it must honor ctx on every
// blocking call.
type SpecialistFunc func(ctx context.Context, st *State) (*Partial, error)

// requiresInputFamilies maps each structured payload type that awaits
// further user input to the keyword family that keeps it alive. A payload
// of one of these types survives into the next turn only while the user is
// still on its topic; every other payload type is display-only and never
// carries over.
var requiresInputFamilies = map[string][]string{
	TypeTransfer: {
		"transfer", "send", "pay", "amount", "account",
		"confirm", "cancel", "haan", "nahi",
		"भेज", "ट्रांसफर", "भुगतान", "खाता", "रकम",
		"हाँ", "नहीं", "रद्द", "पक्का",
	},
	TypeReminderManager: {
		"remind", "reminder", "delete", "cancel",
		"याद", "रिमाइंडर", "हटा",
	},
	TypeStatementRequest: {
		"statement", "pdf", "email", "download",
		"confirm", "cancel", "haan", "nahi",
		"स्टेटमेंट", "विवरण", "हाँ", "नहीं", "रद्द",
	},
}

// Dispatcher invokes exactly one specialist per turn and merges its partial
// back into the state. Specialist failures are contained here: the turn
// proceeds to assembly with no reply text and no structured payloads.
type Dispatcher struct {
	registry map[string]SpecialistFunc
	timeout  time.Duration
	log      *slog.Logger
}

// NewDispatcher builds a dispatcher over the given specialist registry.
func NewDispatcher(registry map[string]SpecialistFunc, timeout time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		log:      log.With("component", "dispatcher"),
	}
}

// Dispatch clears stale payloads, runs the specialist for key, and merges
// its result. The returned error reports total specialist failure (unknown
// key, error, panic, or timeout); the state is then left with no payloads
// and no reply text so assembly falls back.
func (d *Dispatcher) Dispatch(ctx context.Context, st *State, key string) error {
	d.clearStaleCards(st)

	fn, ok := d.registry[key]
	if !ok {
		return fmt.Errorf("no specialist registered for %q", key)
	}

	partial, err := d.invoke(ctx, key, fn, st)
	if err != nil {
		st.StructuredData = nil
		st.StatementData = nil
		return fmt.Errorf("specialist %s: %w", key, err)
	}
	st.Apply(partial)
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, key string, fn SpecialistFunc, st *State) (p *Partial, err error) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "specialist panicked", "specialist", key, "panic", r)
			p, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(cctx, st)
}

// clearStaleCards drops the prior turn's structured payload unless it is a
// requires-input type and the incoming message still matches its keyword
// family. The prior assistant text stays in the history either way.
func (d *Dispatcher) clearStaleCards(st *State) {
	sd := st.StructuredData
	if sd == nil {
		return
	}
	family, requiresInput := requiresInputFamilies[sd.Type]
	if !requiresInput {
		st.StructuredData = nil
		return
	}
	msg := strings.ToLower(st.CurrentMessage())
	for _, kw := range family {
		if strings.Contains(msg, kw) {
			return
		}
	}
	d.log.Debug("clearing stale structured payload", "payload_type", sd.Type)
	st.StructuredData = nil
}
