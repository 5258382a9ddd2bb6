// Package assistant implements the turn pipeline: conversation state,
// intent routing, specialist dispatch, and reply assembly.
package assistant

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Documented structured payload types.
const (
	TypeBalance           = "balance"
	TypeTransactions      = "transactions"
	TypeTransfer          = "transfer"
	TypeTransferReceipt   = "transferReceipt"
	TypeReminder          = "reminder"
	TypeReminderManager   = "reminderManager"
	TypeStatementRequest  = "statementRequest"
	TypeLoan              = "loan"
	TypeInvestment        = "investment"
	TypeCustomerSupport   = "customerSupport"
	TypeUpiModeActivation = "upiModeActivation"
	TypeUpiPaymentCard    = "upiPaymentCard"
	TypeUpiBalanceCheck   = "upiBalanceCheck"
)

// Message is one conversation turn entry.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// StructuredData is a typed payload a specialist produces for UI rendering.
// On the wire it is a flat object carrying "type" next to the payload
// fields.
type StructuredData struct {
	Type   string
	Fields map[string]any
}

// NewStructuredData builds a payload of the given type.
func NewStructuredData(typ string, fields map[string]any) *StructuredData {
	return &StructuredData{Type: typ, Fields: fields}
}

func (s StructuredData) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(s.Fields)+1)
	for k, v := range s.Fields {
		flat[k] = v
	}
	flat["type"] = s.Type
	return json.Marshal(flat)
}

func (s *StructuredData) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	if typ, ok := flat["type"].(string); ok {
		s.Type = typ
	}
	delete(flat, "type")
	s.Fields = flat
	return nil
}

// StatementData describes a requested account statement.
type StatementData struct {
	Account   string `json:"account"`
	FromDate  string `json:"fromDate"`
	ToDate    string `json:"toDate"`
	Format    string `json:"format"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

// State carries one turn through the pipeline. It is built fresh from the
// inbound request, mutated only through Apply, and discarded once the reply
// is assembled.
type State struct {
	Messages        []Message
	Language        string
	UserID          string
	SessionID       string
	UserContext     map[string]string
	UpiMode         bool
	UpiModeSupplied bool
	StructuredData  *StructuredData
	StatementData   *StatementData
	CurrentIntent   string
	VoiceMode       bool
}

// Append adds a message to the turn history.
func (s *State) Append(role, text string) {
	s.Messages = append(s.Messages, Message{Role: role, Text: text, Timestamp: time.Now().UTC()})
}

// CurrentMessage returns the text of the most recent user message.
func (s *State) CurrentMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Text
		}
	}
	return ""
}

// LastAssistantText returns assistant text appended after the current user
// message, or "" when this turn produced none. Assistant messages from the
// supplied history never count as this turn's reply.
func (s *State) LastAssistantText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		switch s.Messages[i].Role {
		case RoleAssistant:
			return s.Messages[i].Text
		case RoleUser:
			return ""
		}
	}
	return ""
}

// Partial is a specialist's proposed state mutation. Apply merges it under
// a fixed whitelist; a specialist has no other way to reach shared state.
type Partial struct {
	Reply           string
	StructuredData  *StructuredData
	ClearStructured bool
	StatementData   *StatementData
	ClearStatement  bool
	UpiMode         *bool
	Intent          string
}

// Apply merges a partial into the state. Messages append only; structured
// payloads replace or clear; UpiMode and Intent replace when set. Anything
// a specialist returns outside these fields never reaches the state.
func (s *State) Apply(p *Partial) {
	if p == nil {
		return
	}
	if p.Reply != "" {
		s.Append(RoleAssistant, p.Reply)
	}
	switch {
	case p.StructuredData != nil:
		s.StructuredData = p.StructuredData
	case p.ClearStructured:
		s.StructuredData = nil
	}
	switch {
	case p.StatementData != nil:
		s.StatementData = p.StatementData
	case p.ClearStatement:
		s.StatementData = nil
	}
	if p.UpiMode != nil {
		s.UpiMode = *p.UpiMode
	}
	if p.Intent != "" {
		s.CurrentIntent = p.Intent
	}
}

// BoolPtr returns a pointer to b, for Partial.UpiMode and request flags.
func BoolPtr(b bool) *bool {
	return &b
}
