package telegram

import (
	"testing"
	"time"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/banking"
)

func TestLocaleFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "hindi", code: "hi", want: "hi-IN"},
		{name: "hindi uppercase", code: "HI", want: "hi-IN"},
		{name: "hindi with region", code: "hi-IN", want: "hi-IN"},
		{name: "english", code: "en", want: "en-IN"},
		{name: "empty defaults to english", code: "", want: "en-IN"},
		{name: "unsupported language", code: "mr", want: "en-IN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := localeFor(tt.code); got != tt.want {
				t.Errorf("localeFor(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestHistoryFromRows(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	rows := []banking.ChatMessage{
		{Role: assistant.RoleAssistant, Content: "Your balance is in the card.", Timestamp: now},
		{Role: assistant.RoleUser, Content: "check balance", Timestamp: now.Add(-time.Minute)},
	}

	history := historyFromRows(rows)
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Role != assistant.RoleUser || history[0].Text != "check balance" {
		t.Errorf("history[0] = %+v, want the oldest user turn first", history[0])
	}
	if history[1].Role != assistant.RoleAssistant {
		t.Errorf("history[1].Role = %q, want %q", history[1].Role, assistant.RoleAssistant)
	}
	if !history[0].Timestamp.Before(history[1].Timestamp) {
		t.Error("history should be ordered oldest first")
	}
}

func TestHistoryFromRowsEmpty(t *testing.T) {
	t.Parallel()

	if got := historyFromRows(nil); got != nil {
		t.Errorf("historyFromRows(nil) = %v, want nil", got)
	}
}
