package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"readingquest/internal/models"
)

// ErrEmptyReply is returned when the model answers with no text
var ErrEmptyReply = errors.New("model returned empty text")

// GeminiProvider generates encouragement and reflections with the Gemini API
type GeminiProvider struct {
	client  *genai.Client
	model   string
	reader  ReaderProfile
	timeout time.Duration
}

// NewGeminiProvider creates a provider for the given API key and model
func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:  client,
		model:   model,
		reader:  DefaultReader,
		timeout: timeout,
	}, nil
}

// MotivationalMessage returns one encouraging sentence for the reader's mood
func (p *GeminiProvider) MotivationalMessage(ctx context.Context, mood models.Mood) (string, error) {
	text, err := p.generate(ctx, BuildMessagePrompt(p.reader, mood))
	if err != nil {
		return "", fmt.Errorf("failed to generate motivational message: %w", err)
	}
	return text, nil
}

// Reflection returns one sentence reflecting on the two journal answers
func (p *GeminiProvider) Reflection(ctx context.Context, answer1, answer2 string) (string, error) {
	text, err := p.generate(ctx, BuildReflectionPrompt(p.reader, answer1, answer2))
	if err != nil {
		return "", fmt.Errorf("failed to generate journal reflection: %w", err)
	}
	return text, nil
}

// generate makes a single attempt, there is no retry
func (p *GeminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := cleanReply(res.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
