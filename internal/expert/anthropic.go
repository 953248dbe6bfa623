package expert

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	AnthropicName  = "Anthropic"
	AnthropicModel = "claude-3-5-haiku-20241022"

	anthropicMaxTokens = 1024
)

type anthropicExpert struct {
	model  string
	client anthropic.Client
}

// NewAnthropic returns adapter B: claude-3-5-haiku at temperature 0.
func NewAnthropic(apiKey, baseURL string) Expert {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &anthropicExpert{
		model:  AnthropicModel,
		client: anthropic.NewClient(opts...),
	}
}

func (a *anthropicExpert) Name() string  { return AnthropicName }
func (a *anthropicExpert) Model() string { return a.model }

func (a *anthropicExpert) Respond(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text content returned by model")
	}
	return b.String(), nil
}
