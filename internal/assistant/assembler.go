package assistant

import (
	"regexp"
	"strings"
	"time"

	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/internal/guard"
)

// ReplyEnvelope is the outbound reply shape. It is always well-formed:
// every pipeline outcome, including refusals and total failures, produces
// one.
type ReplyEnvelope struct {
	Success        bool            `json:"success"`
	Response       string          `json:"response"`
	Intent         string          `json:"intent"`
	Language       string          `json:"language"`
	StructuredData *StructuredData `json:"structuredData,omitempty"`
	StatementData  *StatementData  `json:"statementData,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

type template struct{ en, hi string }

func (t template) forLang(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "hi") {
		return t.hi
	}
	return t.en
}

// fallbackTemplates supply reply text when a specialist produced only a
// structured payload, so the UI always has something to show.
var fallbackTemplates = map[string]template{
	TypeBalance: {
		en: "Here are your account balance details.",
		hi: "यह रही आपके खाते की शेष राशि।",
	},
	TypeTransactions: {
		en: "Here are your recent transactions.",
		hi: "यह रहे आपके हाल के लेनदेन।",
	},
	TypeTransfer: {
		en: "Please review and confirm the transfer details.",
		hi: "कृपया ट्रांसफर का विवरण देखकर पुष्टि करें।",
	},
	TypeTransferReceipt: {
		en: "Your transfer is complete. Here is the receipt.",
		hi: "आपका ट्रांसफर पूरा हुआ। यह रही रसीद।",
	},
	TypeReminder: {
		en: "Your reminder has been set.",
		hi: "आपका रिमाइंडर सेट कर दिया गया है।",
	},
	TypeReminderManager: {
		en: "Here are your reminders.",
		hi: "यह रहे आपके रिमाइंडर।",
	},
	TypeStatementRequest: {
		en: "Please confirm the statement details.",
		hi: "कृपया स्टेटमेंट का विवरण पक्का करें।",
	},
	TypeLoan: {
		en: "Here are the loan options available to you.",
		hi: "यह रहे आपके लिए उपलब्ध लोन विकल्प।",
	},
	TypeInvestment: {
		en: "Here are the investment options available to you.",
		hi: "यह रहे आपके लिए उपलब्ध निवेश विकल्प।",
	},
	TypeCustomerSupport: {
		en: "I have raised a support request for you.",
		hi: "मैंने आपके लिए सहायता अनुरोध दर्ज कर दिया है।",
	},
	TypeUpiModeActivation: {
		en: "UPI mode is now active.",
		hi: "यूपीआई मोड अब चालू है।",
	},
	TypeUpiPaymentCard: {
		en: "Please confirm the UPI payment details.",
		hi: "कृपया यूपीआई भुगतान का विवरण पक्का करें।",
	},
	TypeUpiBalanceCheck: {
		en: "Here is your UPI-linked account balance.",
		hi: "यह रही आपके यूपीआई खाते की शेष राशि।",
	},
}

var genericFallback = template{
	en: "Here is the information you asked for.",
	hi: "यह रही आपकी मांगी हुई जानकारी।",
}

func fallbackText(payloadType, lang string) string {
	if t, ok := fallbackTemplates[payloadType]; ok {
		return t.forLang(lang)
	}
	return genericFallback.forLang(lang)
}

var (
	speechLinkRe    = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	speechBoldRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	speechCodeRe    = regexp.MustCompile("`+([^`]*)`+")
	speechItalicRe  = regexp.MustCompile(`(^|\s)[*_]([^*_]+)[*_]`)
	speechHeadingRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	speechBulletRe  = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	speechSpaceRe   = regexp.MustCompile(`\s+`)
)

// NormalizeForSpeech strips visual decoration so text-to-speech reads the
// reply cleanly.
func NormalizeForSpeech(text string) string {
	out := speechLinkRe.ReplaceAllString(text, "$1")
	out = speechBoldRe.ReplaceAllString(out, "$1")
	out = speechCodeRe.ReplaceAllString(out, "$1")
	out = speechItalicRe.ReplaceAllString(out, "$1$2")
	out = speechHeadingRe.ReplaceAllString(out, "")
	out = speechBulletRe.ReplaceAllString(out, "")
	out = speechSpaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Assembler produces the final reply envelope for every pipeline outcome.
type Assembler struct {
	messages config.MessagesConfig
}

// NewAssembler builds an assembler with the configured user-facing texts.
func NewAssembler(messages config.MessagesConfig) *Assembler {
	return &Assembler{messages: messages}
}

// Assemble builds the envelope for a processed turn. Empty reply text is
// substituted from the payload-type template; a turn with neither text nor
// payload counts as a total specialist failure.
func (a *Assembler) Assemble(st *State) ReplyEnvelope {
	text := st.LastAssistantText()
	if text == "" && st.StructuredData != nil {
		text = fallbackText(st.StructuredData.Type, st.Language)
	}
	if text == "" {
		return a.Failure(st)
	}
	if st.VoiceMode {
		text = NormalizeForSpeech(text)
	}
	return ReplyEnvelope{
		Success:        true,
		Response:       text,
		Intent:         st.CurrentIntent,
		Language:       st.Language,
		StructuredData: st.StructuredData,
		StatementData:  st.StatementData,
		Timestamp:      time.Now().UTC(),
	}
}

// Failure builds the envelope for a total specialist failure: a bilingual
// apology inviting retry, with no payloads.
func (a *Assembler) Failure(st *State) ReplyEnvelope {
	return ReplyEnvelope{
		Success:   false,
		Response:  a.messages.Apology,
		Intent:    st.CurrentIntent,
		Language:  st.Language,
		Timestamp: time.Now().UTC(),
	}
}

// Refusal builds the envelope for a guardrail violation: a short, localized,
// non-diagnostic message in the requested language.
func (a *Assembler) Refusal(st *State, v *guard.Violation) ReplyEnvelope {
	msg := a.messages.Refusal.For(st.Language)
	if v.Kind == guard.RateLimited {
		msg = a.messages.RateLimited.For(st.Language)
	}
	return ReplyEnvelope{
		Success:   false,
		Response:  msg,
		Intent:    st.CurrentIntent,
		Language:  st.Language,
		Timestamp: time.Now().UTC(),
	}
}
