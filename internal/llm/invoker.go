// Package llm holds the model invokers: the only code that talks to a hosted
// text-generation service. Everything above this package sees a prompt going
// in and raw text coming out.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Invoker sends a prompt to a model and returns its raw text reply.
// Implementations must be safe for concurrent use.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Provider names accepted by New.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderStatic   = "static"
)

const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultDeepSeekModel = "deepseek-chat"
	DeepSeekBaseURL      = "https://api.deepseek.com/v1/"
)

var (
	// ErrNoCredential is returned by New when a remote provider has no API key.
	ErrNoCredential = errors.New("llm: no API key configured")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("llm: unknown provider")
)

// Settings configures an invoker.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// KnownProvider reports whether New understands the provider name.
func KnownProvider(name string) bool {
	switch strings.ToLower(name) {
	case ProviderGemini, ProviderOpenAI, ProviderDeepSeek, ProviderStatic:
		return true
	}
	return false
}

// DefaultModel returns the model used when Settings.Model is empty.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderDeepSeek:
		return DefaultDeepSeekModel
	case ProviderStatic:
		return ProviderStatic
	default:
		return DefaultGeminiModel
	}
}

// New builds the invoker for the configured provider.
func New(ctx context.Context, s Settings, log *logrus.Entry) (Invoker, error) {
	if log == nil {
		log = logrus.WithField("component", "llm")
	}
	provider := strings.ToLower(s.Provider)
	if !KnownProvider(provider) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
	if s.Model == "" {
		s.Model = DefaultModel(provider)
	}
	if provider == ProviderStatic {
		return NewStaticInvoker(), nil
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, ErrNoCredential
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiInvoker(ctx, s, log)
	case ProviderDeepSeek:
		if s.BaseURL == "" {
			s.BaseURL = DeepSeekBaseURL
		}
		inv, err := NewOpenAIInvoker(s, log)
		if err != nil {
			return nil, err
		}
		inv.provider = ProviderDeepSeek
		return inv, nil
	default:
		return NewOpenAIInvoker(s, log)
	}
}

func logCall(log *logrus.Entry, provider, model, prompt string, started time.Time, err error) {
	entry := log.WithFields(logrus.Fields{
		"provider":     provider,
		"model":        model,
		"prompt_bytes": len(prompt),
		"latency":      time.Since(started).Round(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).Warn("model call failed")
		return
	}
	entry.Debug("model call completed")
}
