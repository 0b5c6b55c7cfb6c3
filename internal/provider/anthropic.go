package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/prime3679/bishop-bench/internal/catalog"
)

const (
	AnthropicKeyEnv    = "ANTHROPIC_API_KEY"
	anthropicMaxTokens = 1024
)

type Anthropic struct {
	apiKey string
	client anthropic.Client
}

// NewAnthropic builds an adapter for the Messages API. An empty baseURL uses
// the SDK default. Retries are left to the caller.
func NewAnthropic(apiKey, baseURL string) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{apiKey: apiKey, client: anthropic.NewClient(opts...)}
}

func (a *Anthropic) Kind() catalog.Provider { return catalog.Anthropic }

func (a *Anthropic) CredentialEnv() string { return AnthropicKeyEnv }

func (a *Anthropic) Ready() bool { return a.apiKey != "" }

func (a *Anthropic) Complete(ctx context.Context, modelID, prompt string) (Completion, error) {
	if !a.Ready() {
		return Completion{}, missingCredential(AnthropicKeyEnv)
	}
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Completion{}, err
	}
	return NormalizeAnthropic(msg), nil
}

// NormalizeAnthropic concatenates the text blocks of msg. Other block types
// are ignored and missing usage counts as zero.
func NormalizeAnthropic(msg *anthropic.Message) Completion {
	if msg == nil {
		return Completion{}
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return Completion{
		Text:         b.String(),
		InputTokens:  nonNegative(msg.Usage.InputTokens),
		OutputTokens: nonNegative(msg.Usage.OutputTokens),
	}
}

func nonNegative(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}
