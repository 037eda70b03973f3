package stylist

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/BerylCAtieno/watch-recommender/internal/metrics"
	"github.com/BerylCAtieno/watch-recommender/internal/models"
)

const DefaultModel = "gemini-2.5-flash-lite"

// GeminiClient writes short stylist notes with a Gemini model.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(256)

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiClient) Close() {
	g.client.Close()
}

// Note explains in one paragraph why the brands suit the preferences.
func (g *GeminiClient) Note(ctx context.Context, prefs models.Preferences, brands []string) (string, error) {
	if len(brands) == 0 {
		return "", nil
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(prefs, brands)))
	if err != nil {
		metrics.StylistRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		metrics.StylistRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("no content generated")
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	metrics.StylistRequests.WithLabelValues("ok").Inc()
	return CleanNote(strings.Join(parts, " ")), nil
}
