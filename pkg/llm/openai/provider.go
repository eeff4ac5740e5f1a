package openai

import (
	"context"
	"fmt"

	"book-rag-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config describes one OpenAI-compatible chat endpoint.
type Config struct {
	// Name prefixes errors, e.g. "ollama".
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	// KeyOptional allows servers that ignore the bearer token.
	KeyOptional bool
	// LegacyMaxTokens sends max_tokens instead of max_completion_tokens,
	// which is what most compatible servers understand.
	LegacyMaxTokens  bool
	DefaultMaxTokens int
}

type Provider struct {
	client *goopenai.Client
	cfg    Config
}

var _ llm.LLMProvider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.APIKey == "" {
		if !cfg.KeyOptional {
			return nil, fmt.Errorf("%s: api key is required", cfg.Name)
		}
		cfg.APIKey = "unused"
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{client: goopenai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

// NewProvider targets api.openai.com unless baseURL overrides it.
func NewProvider(apiKey, baseURL, model string) (*Provider, error) {
	return New(Config{APIKey: apiKey, BaseURL: baseURL, Model: model})
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.cfg.Model, Temperature: 0.7, MaxTokens: p.cfg.DefaultMaxTokens}, options...)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "model" {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		if p.cfg.LegacyMaxTokens {
			req.MaxTokens = opts.MaxTokens
		} else {
			req.MaxCompletionTokens = opts.MaxTokens
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.cfg.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.cfg.Name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
