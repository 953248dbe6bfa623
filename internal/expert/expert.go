package expert

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Expert is one upstream language-model vendor answering a text prompt.
type Expert interface {
	// Name is the vendor label used in substituted error text.
	Name() string
	Model() string
	Respond(ctx context.Context, prompt string) (string, error)
}

// Answer is the captured outcome of asking one expert. Exactly one of Text
// or Err is meaningful.
type Answer struct {
	Expert string
	Text   string
	Err    error
}

// Display returns the text to show and persist for this answer: the reply
// itself, or "<Vendor> API Error: <details>" when the call failed.
func (a Answer) Display() string {
	if a.Err != nil {
		return fmt.Sprintf("%s API Error: %v", a.Expert, a.Err)
	}
	return a.Text
}

// Ask calls e and never fails: vendor errors and panics raised inside the
// adapter are folded into the returned Answer.
func Ask(ctx context.Context, e Expert, prompt string) (ans Answer) {
	defer func() {
		if r := recover(); r != nil {
			if ans.Expert == "" {
				ans.Expert = "Expert"
			}
			ans.Text = ""
			ans.Err = fmt.Errorf("panic: %v", r)
		}
		if ans.Err != nil {
			log.Printf("%s", ans.Display())
		}
	}()
	ans.Expert = e.Name()
	ans.Text, ans.Err = e.Respond(ctx, prompt)
	return ans
}

// Config carries the per-vendor credentials and endpoints. Empty keys are
// not rejected here; the vendor reports them at call time.
type Config struct {
	Backend string

	OpenAIKey     string
	OpenAIBaseURL string

	AnthropicKey     string
	AnthropicBaseURL string

	XAIKey     string
	XAIBaseURL string
}

// NewSet builds the three experts in their fixed order: OpenAI, Anthropic,
// xAI. Backend "mock" swaps in deterministic offline experts.
func NewSet(cfg Config) [3]Expert {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "mock":
		return [3]Expert{
			NewStatic(OpenAIName, OpenAIModel, "mock answer from "+OpenAIName),
			NewStatic(AnthropicName, AnthropicModel, "mock answer from "+AnthropicName),
			NewStatic(XAIName, XAIModel, "mock answer from "+XAIName),
		}
	default:
		return [3]Expert{
			NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL),
			NewAnthropic(cfg.AnthropicKey, cfg.AnthropicBaseURL),
			NewXAI(cfg.XAIKey, cfg.XAIBaseURL),
		}
	}
}

// --- static expert ---

type staticExpert struct {
	name  string
	model string
	reply string
}

// NewStatic returns an expert that always answers reply. Used for offline
// runs.
func NewStatic(name, model, reply string) Expert {
	return &staticExpert{name: name, model: model, reply: reply}
}

func (s *staticExpert) Name() string  { return s.name }
func (s *staticExpert) Model() string { return s.model }

func (s *staticExpert) Respond(ctx context.Context, prompt string) (string, error) {
	return s.reply, nil
}
