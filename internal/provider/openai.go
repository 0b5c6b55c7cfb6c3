package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/prime3679/bishop-bench/internal/catalog"
)

const (
	OpenAIKeyEnv         = "OPENAI_API_KEY"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	maxErrorBody         = 4096
)

type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAI builds a Chat Completions adapter. A nil client uses http.DefaultClient.
func NewOpenAI(apiKey, baseURL string, client *http.Client) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{apiKey: apiKey, baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (o *OpenAI) Kind() catalog.Provider { return catalog.OpenAI }

func (o *OpenAI) CredentialEnv() string { return OpenAIKeyEnv }

func (o *OpenAI) Ready() bool { return o.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func (o *OpenAI) Complete(ctx context.Context, modelID, prompt string) (Completion, error) {
	if !o.Ready() {
		return Completion{}, missingCredential(OpenAIKeyEnv)
	}
	body, err := json.Marshal(chatRequest{
		Model:    modelID,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Completion{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Completion{}, &StatusError{StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("reading response: %w", err)
	}
	return NormalizeOpenAI(raw), nil
}

func apiErrorMessage(raw []byte) string {
	if doc, err := gabs.ParseJSON(raw); err == nil {
		if msg, ok := doc.Path("error.message").Data().(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(string(raw))
}

// NormalizeOpenAI extracts text and usage from a Chat Completions or
// Responses API body. Malformed or partial bodies yield zero values.
func NormalizeOpenAI(raw []byte) Completion {
	doc, err := gabs.ParseJSON(raw)
	if err != nil {
		return Completion{}
	}
	return Completion{
		Text:         openAIText(doc),
		InputTokens:  firstCount(doc, "usage.input_tokens", "usage.prompt_tokens"),
		OutputTokens: firstCount(doc, "usage.output_tokens", "usage.completion_tokens"),
	}
}

func openAIText(doc *gabs.Container) string {
	if s, ok := doc.Path("output_text").Data().(string); ok {
		return s
	}
	if choices := array(doc.Path("choices")); len(choices) > 0 {
		content := choices[0].Path("message.content")
		if s, ok := content.Data().(string); ok {
			return s
		}
		return joinText(array(content))
	}
	var b strings.Builder
	for _, item := range array(doc.Path("output")) {
		b.WriteString(joinText(array(item.Path("content"))))
	}
	return b.String()
}

// joinText concatenates the text of content parts, skipping non-text parts.
func joinText(parts []*gabs.Container) string {
	var b strings.Builder
	for _, part := range parts {
		switch typ, _ := part.Path("type").Data().(string); typ {
		case "", "text", "output_text":
		default:
			continue
		}
		if s, ok := part.Path("text").Data().(string); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

func array(c *gabs.Container) []*gabs.Container {
	if c == nil {
		return nil
	}
	if _, ok := c.Data().([]interface{}); !ok {
		return nil
	}
	return c.Children()
}

func firstCount(doc *gabs.Container, paths ...string) int {
	for _, p := range paths {
		switch v := doc.Path(p).Data().(type) {
		case float64:
			if v > 0 {
				return int(v)
			}
			return 0
		case json.Number:
			if n, err := v.Int64(); err == nil && n > 0 {
				return int(n)
			}
			return 0
		}
	}
	return 0
}
