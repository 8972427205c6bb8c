package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// OpenAIInvoker calls an OpenAI-compatible chat-completions endpoint
// (OpenAI itself, or DeepSeek through its base URL).
type OpenAIInvoker struct {
	client   openai.Client
	provider string
	model    string
	log      *logrus.Entry
}

// NewOpenAIInvoker creates a chat-completions client for the given settings.
func NewOpenAIInvoker(s Settings, log *logrus.Entry) (*OpenAIInvoker, error) {
	if s.APIKey == "" {
		return nil, ErrNoCredential
	}
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(s.Timeout))
	}
	model := s.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIInvoker{
		client:   openai.NewClient(opts...),
		provider: ProviderOpenAI,
		model:    model,
		log:      log,
	}, nil
}

// Invoke implements Invoker. The prompt is sent as a single user message.
func (o *OpenAIInvoker) Invoke(ctx context.Context, prompt string, temperature float64) (string, error) {
	started := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(temperature),
	})
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("empty choices")
	}
	logCall(o.log, o.provider, o.model, prompt, started, err)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	return resp.Choices[0].Message.Content, nil
}
