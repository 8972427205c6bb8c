package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiInvoker calls the Gemini API through the genai SDK.
type GeminiInvoker struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logrus.Entry
}

// NewGeminiInvoker creates a Gemini client for the given settings.
func NewGeminiInvoker(ctx context.Context, s Settings, log *logrus.Entry) (*GeminiInvoker, error) {
	cfg := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: creating gemini client: %w", err)
	}
	model := s.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiInvoker{
		client:  client,
		model:   model,
		timeout: s.Timeout,
		log:     log,
	}, nil
}

// Invoke implements Invoker.
func (g *GeminiInvoker) Invoke(ctx context.Context, prompt string, temperature float64) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	})
	logCall(g.log, ProviderGemini, g.model, prompt, started, err)
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate content: %w", err)
	}
	return res.Text(), nil
}
