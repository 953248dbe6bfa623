package expert

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName  = "OpenAI"
	OpenAIModel = "gpt-4o-mini"

	XAIName           = "xAI"
	XAIModel          = "grok-beta"
	DefaultXAIBaseURL = "https://api.x.ai/v1"
)

// chatExpert talks to any OpenAI-compatible chat completions endpoint.
type chatExpert struct {
	name   string
	model  string
	client openai.Client
}

// NewOpenAI returns adapter A: gpt-4o-mini at temperature 0. An empty
// baseURL keeps the SDK default.
func NewOpenAI(apiKey, baseURL string) Expert {
	return newChatExpert(OpenAIName, OpenAIModel, apiKey, baseURL)
}

// NewXAI returns adapter C: grok-beta through xAI's OpenAI-compatible API.
func NewXAI(apiKey, baseURL string) Expert {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultXAIBaseURL
	}
	return newChatExpert(XAIName, XAIModel, apiKey, baseURL)
}

func newChatExpert(name, model, apiKey, baseURL string) *chatExpert {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &chatExpert{
		name:   name,
		model:  model,
		client: openai.NewClient(opts...),
	}
}

func (c *chatExpert) Name() string  { return c.name }
func (c *chatExpert) Model() string { return c.model }

func (c *chatExpert) Respond(ctx context.Context, prompt string) (string, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no choices returned by model")
	}
	return completion.Choices[0].Message.Content, nil
}
