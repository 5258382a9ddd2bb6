package assistant

import (
	"context"
	"log/slog"

	"github.com/vaanihq/vaani/internal/guard"
)

// TurnRequest is the inbound request shape. UpiMode distinguishes absent
// from false: when the caller does not supply it, the router may infer the
// sticky mode from history. StructuredData is the prior turn's payload
// echoed back by the client; the core keeps no per-session state of its
// own.
type TurnRequest struct {
	Message        string            `json:"message"`
	UserID         string            `json:"userId"`
	SessionID      string            `json:"sessionId"`
	Language       string            `json:"language"`
	UserContext    map[string]string `json:"userContext,omitempty"`
	MessageHistory []Message         `json:"messageHistory,omitempty"`
	VoiceMode      bool              `json:"voiceMode,omitempty"`
	UpiMode        *bool             `json:"upiMode,omitempty"`
	StructuredData *StructuredData   `json:"structuredData,omitempty"`
}

// NewState builds the turn state from an inbound request: copied history
// with the current message appended, defaulted language, and the explicit
// or absent UPI mode flag recorded.
func NewState(req TurnRequest) *State {
	st := &State{
		Messages:       append([]Message(nil), req.MessageHistory...),
		Language:       req.Language,
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		UserContext:    req.UserContext,
		VoiceMode:      req.VoiceMode,
		StructuredData: req.StructuredData,
	}
	if st.Language == "" {
		st.Language = "en-IN"
	}
	if req.UpiMode != nil {
		st.UpiMode = *req.UpiMode
		st.UpiModeSupplied = true
	}
	st.Append(RoleUser, req.Message)
	return st
}

// Pipeline runs a turn end to end: input gate, state construction, intent
// routing, specialist dispatch, output gate, assembly. Every failure mode
// resolves to a well-formed envelope; nothing escapes as a fault.
type Pipeline struct {
	gate       *guard.Gate
	router     *Router
	dispatcher *Dispatcher
	assembler  *Assembler
	log        *slog.Logger
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(gate *guard.Gate, router *Router, dispatcher *Dispatcher, assembler *Assembler, log *slog.Logger) *Pipeline {
	return &Pipeline{
		gate:       gate,
		router:     router,
		dispatcher: dispatcher,
		assembler:  assembler,
		log:        log.With("component", "pipeline"),
	}
}

// ProcessTurn handles one request/reply cycle.
func (p *Pipeline) ProcessTurn(ctx context.Context, req TurnRequest) ReplyEnvelope {
	st := NewState(req)

	if v := p.gate.CheckInput(req.Message, st.Language, st.UserID); v != nil {
		p.log.WarnContext(ctx, "input blocked",
			"kind", v.Kind, "evidence", v.Evidence, "user_id", st.UserID, "session_id", st.SessionID)
		return p.assembler.Refusal(st, v)
	}

	key := p.router.Resolve(ctx, st)
	st.CurrentIntent = key
	p.log.InfoContext(ctx, "turn routed",
		"specialist", key, "language", st.Language, "upi_mode", st.UpiMode, "session_id", st.SessionID)

	if err := p.dispatcher.Dispatch(ctx, st, key); err != nil {
		p.log.ErrorContext(ctx, "dispatch failed", "specialist", key, "error", err)
		return p.assembler.Failure(st)
	}

	if text := st.LastAssistantText(); text != "" {
		if v := p.gate.CheckOutput(text, st.Language); v != nil {
			p.log.WarnContext(ctx, "output blocked",
				"kind", v.Kind, "evidence", v.Evidence, "specialist", key)
			return p.assembler.Refusal(st, v)
		}
	}

	return p.assembler.Assemble(st)
}
