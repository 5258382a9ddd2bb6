// Package guard screens pipeline traffic in both directions: inbound
// messages against rate limits, abusive content, personal data, and prompt
// injection, and outbound replies against content leaks and script drift.
package guard

import (
	"fmt"
	"strings"

	"github.com/vaanihq/vaani/internal/config"
)

// Kind classifies a guardrail violation.
type Kind string

const (
	ToxicContent     Kind = "toxicContent"
	PIIDetected      Kind = "piiDetected"
	PromptInjection  Kind = "promptInjection"
	RateLimited      Kind = "rateLimited"
	LanguageMismatch Kind = "languageMismatch"
)

// Violation describes one failed check. Message is an operator-facing
// description; Evidence names what tripped the check (a pattern name or
// matched term, never raw personal data).
type Violation struct {
	Kind     Kind
	Message  string
	Evidence string
}

// Gate runs the safety checks around a turn. Input checks run in a fixed
// order (rate limit, toxicity, PII, prompt injection) and stop at the first
// violation; output checks re-screen generated text and enforce script
// consistency with the requested language.
type Gate struct {
	limiter        *RateLimiter
	scriptMix      float64
	extraToxic     []string
	extraInjection []string
}

// NewGate builds a gate over the given limiter. Extra toxic terms and
// injection phrases from cfg extend the built-in bilingual pattern sets.
func NewGate(limiter *RateLimiter, cfg config.GuardConfig) *Gate {
	g := &Gate{
		limiter:   limiter,
		scriptMix: cfg.ScriptMixRatio,
	}
	for _, term := range cfg.ExtraToxic {
		g.extraToxic = append(g.extraToxic, strings.ToLower(term))
	}
	for _, phrase := range cfg.ExtraInjection {
		g.extraInjection = append(g.extraInjection, strings.ToLower(phrase))
	}
	return g
}

// CheckInput screens an inbound message. It returns nil when the message
// may proceed, or the first violation found. The rate limiter records the
// request whatever the outcome.
func (g *Gate) CheckInput(text, language, userID string) *Violation {
	if !g.limiter.Allow(userID) {
		return &Violation{Kind: RateLimited, Message: "request rate exceeded", Evidence: userID}
	}
	if term, ok := g.matchToxic(text); ok {
		return &Violation{Kind: ToxicContent, Message: "abusive language in message", Evidence: term}
	}
	if name, ok := matchPII(text); ok {
		return &Violation{Kind: PIIDetected, Message: "personal data in message", Evidence: name}
	}
	if phrase, ok := g.matchInjection(text); ok {
		return &Violation{Kind: PromptInjection, Message: "instruction override attempt", Evidence: phrase}
	}
	return nil
}

// CheckOutput screens a generated reply before it leaves the pipeline.
func (g *Gate) CheckOutput(text, language string) *Violation {
	if term, ok := g.matchToxic(text); ok {
		return &Violation{Kind: ToxicContent, Message: "abusive language in reply", Evidence: term}
	}
	if name, ok := matchPII(text); ok {
		return &Violation{Kind: PIIDetected, Message: "personal data in reply", Evidence: name}
	}
	if ratio := scriptMixRatio(text, language); ratio > g.scriptMix {
		return &Violation{
			Kind:     LanguageMismatch,
			Message:  "reply script inconsistent with requested language",
			Evidence: fmt.Sprintf("%.0f%% foreign script", ratio*100),
		}
	}
	return nil
}

func (g *Gate) matchToxic(text string) (string, bool) {
	if m := latinToxicRe.FindString(text); m != "" {
		return strings.ToLower(m), true
	}
	for _, term := range devanagariToxic {
		if strings.Contains(text, term) {
			return term, true
		}
	}
	lower := strings.ToLower(text)
	for _, term := range g.extraToxic {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}

func (g *Gate) matchInjection(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range injectionPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	for _, phrase := range g.extraInjection {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
