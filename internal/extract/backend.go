// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract derives searchable structured fields from experiment
// entries via a Generative AI API. A failed or unparseable call yields
// the all-empty field object, which is both a valid terminal state and
// the retry-eligible sentinel.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// AIBackend abstracts the Generative AI API so tests can supply a mock.
// Each call handles one experiment prompt and returns the extracted
// fields.
type AIBackend interface {
	Extract(ctx context.Context, prompt string) (types.SearchableExperimentFields, error)
}

// AnthropicMessager is the slice of the Anthropic client the backend
// needs; tests substitute a fake.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicBackend calls the Anthropic Messages API.
type AnthropicBackend struct {
	messages AnthropicMessager
	model    string
}

// NewAnthropicBackend builds a backend from the AI configuration.
func NewAnthropicBackend(cfg types.AIConfig) (*AnthropicBackend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	return &AnthropicBackend{messages: &c.Messages, model: model}, nil
}

const systemPrompt = "You are a biomedical data curator extracting structured metadata from genomic dataset descriptions. The input mixes Japanese and English. Respond with strict JSON only."

// Extract sends one experiment prompt and parses the JSON reply.
func (b *AnthropicBackend) Extract(ctx context.Context, prompt string) (types.SearchableExperimentFields, error) {
	resp, err := b.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   1024,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return types.SearchableExperimentFields{}, fmt.Errorf("anthropic call: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return types.SearchableExperimentFields{}, fmt.Errorf("anthropic call: empty response")
	}

	var fields types.SearchableExperimentFields
	if err := json.Unmarshal([]byte(stripFences(text)), &fields); err != nil {
		return types.SearchableExperimentFields{}, fmt.Errorf("parsing model response: %w", err)
	}
	return fields, nil
}

// stripFences removes a markdown code fence when the model wraps its
// JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// retryDelay is the pause between failed call attempts. Tests override
// it to avoid real sleeps.
var retryDelay = 2 * time.Second

// callWithRetry retries failed backend calls a fixed number of times
// with a fixed delay.
func callWithRetry(ctx context.Context, backend AIBackend, prompt string, maxRetries int) (types.SearchableExperimentFields, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return types.SearchableExperimentFields{}, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		fields, err := backend.Extract(ctx, prompt)
		if err == nil {
			return fields, nil
		}
		lastErr = err
	}
	return types.SearchableExperimentFields{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
