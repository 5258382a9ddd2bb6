// Package gemini implements the language-model collaborators: intent
// classification, reply generation, and text embedding.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vaanihq/vaani/internal/assistant"
	"github.com/vaanihq/vaani/internal/config"
)

// Client defines the AI operations the pipeline and specialists consume.
type Client interface {
	ClassifyIntent(ctx context.Context, st *assistant.State) (string, error)
	GenerateReply(ctx context.Context, st *assistant.State, instruction string) (string, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

type sdkClient struct {
	genaiClient     *genai.Client
	log             *slog.Logger
	contentConfig   *genai.GenerateContentConfig
	modelName       string
	classifierModel string
	embedModel      string
	maxRetries      int
	retryDelay      time.Duration
}

var intentLabels = func() []string {
	labels := assistant.IntentLabels()
	sort.Strings(labels)
	return labels
}()

var classificationSchema = &genai.Schema{
	Type: genai.TypeString,
	Enum: intentLabels,
}

// NewClient creates a Gemini client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	logger := log.With("component", "gemini_client")
	logger.Info("gemini client initialized",
		"model", cfg.Model, "classifier_model", cfg.ClassifierModel, "embed_model", cfg.EmbedModel)
	return &sdkClient{
		genaiClient:     gi,
		log:             logger,
		contentConfig:   baseCfg,
		modelName:       cfg.Model,
		classifierModel: cfg.ClassifierModel,
		embedModel:      cfg.EmbedModel,
		maxRetries:      cfg.MaxRetries,
		retryDelay:      cfg.RetryDelay,
	}, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, modelName string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "gemini call failed", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		// Content errors and 4xx codes are not retriable.
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}
	return nil, err
}

// ClassifyIntent labels the current user message with one of the routing
// labels. The response schema constrains the model to the label enum;
// anything else still comes back as a string for the router to reject.
func (c *sdkClient) ClassifyIntent(ctx context.Context, st *assistant.State) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, ClassifierInstruction, strings.Join(intentLabels, ", "))
	sb.WriteString("\n\nConversation:\n")
	for _, m := range recentMessages(st.Messages, 6) {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Text)
	}

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	copyCfg := *c.contentConfig
	copyCfg.ResponseMIMEType = "application/json"
	copyCfg.ResponseSchema = classificationSchema
	zero := float32(0)
	copyCfg.Temperature = &zero

	resp, err := c.generateContentWithRetries(ctx, c.classifierModel, contents, &copyCfg)
	if err != nil {
		return "", fmt.Errorf("intent classification failed: %w", err)
	}
	text, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		return "", fmt.Errorf("intent classification failed: %w", err)
	}

	var label string
	if err := json.Unmarshal([]byte(text), &label); err != nil {
		// Some models return the bare label instead of a JSON string.
		label = strings.TrimSpace(strings.Trim(text, "\"`\n "))
	}
	c.log.DebugContext(ctx, "intent classified", "label", label)
	return label, nil
}

// GenerateReply produces assistant text for the conversation. The optional
// instruction is appended to the system prompt; specialists use it to pass
// grounding passages or flow directions.
func (c *sdkClient) GenerateReply(ctx context.Context, st *assistant.State, instruction string) (string, error) {
	c.log.DebugContext(ctx, "generating reply", "message_count", len(st.Messages), "language", st.Language)

	contents := make([]*genai.Content, 0, len(st.Messages))
	for _, m := range st.Messages {
		var role genai.Role = genai.RoleUser
		if m.Role == assistant.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}

	sys := fmt.Sprintf(AssistantSystemInstruction, languageDirective(st.Language))
	if instruction != "" {
		sys += "\n\n" + instruction
	}

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: sys}}}

	resp, err := c.generateContentWithRetries(ctx, c.modelName, contents, &copyCfg)
	if err != nil {
		return "", fmt.Errorf("reply generation failed: %w", err)
	}
	return c.extractTextFromResponse(ctx, resp)
}

// EmbedText returns the embedding vector for a piece of text.
func (c *sdkClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	res, err := c.genaiClient.Models.EmbedContent(ctx, c.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return res.Embeddings[0].Values, nil
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "gemini request blocked", "reason", reason)
		return "", fmt.Errorf("blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("gemini returned no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func recentMessages(msgs []assistant.Message, n int) []assistant.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
