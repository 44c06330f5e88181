// Package classify assigns buckets to draft transactions using a Gemini
// model and reconciles the model's suggestions against the known buckets.
package classify

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Suggester proposes a bucket name per draft ID. Implementations may
// return a partial mapping; unmapped drafts keep their current bucket.
type Suggester interface {
	Suggest(ctx context.Context, drafts []core.DraftTransaction, buckets []core.Bucket) (map[string]string, error)
}

// Gemini calls the Gemini API to classify drafts into buckets.
type Gemini struct {
	apiKey string
	model  string
	logger *applog.Logger
}

// NewGemini builds a Gemini suggester. An empty API key is allowed: the
// suggester then degrades to returning an empty mapping so imports still
// work with manual bucket assignment.
func NewGemini(apiKey, model string, logger *applog.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		apiKey: apiKey,
		model:  model,
		logger: logger.WithComponent(applog.ComponentClassify),
	}
}

// Suggest asks the model for a draft-ID to bucket-name mapping.
func (g *Gemini) Suggest(ctx context.Context, drafts []core.DraftTransaction, buckets []core.Bucket) (map[string]string, error) {
	if len(drafts) == 0 {
		return map[string]string{}, nil
	}
	if g.apiKey == "" {
		g.logger.Warn("gemini api key not configured, skipping classification",
			applog.FieldBatchSize, len(drafts))
		return map[string]string{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(drafts, buckets)},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	mapping, err := parseMapping(raw)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "classified drafts",
		applog.FieldBatchSize, len(drafts),
		"mapped", len(mapping))
	return mapping, nil
}

func parseMapping(raw string) (map[string]string, error) {
	clean := cleanModelJSON(raw)
	var mapping map[string]string
	if err := json.Unmarshal([]byte(clean), &mapping); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}
	return mapping, nil
}
