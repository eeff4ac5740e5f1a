package openai

import (
	"context"
	"fmt"

	"book-rag-be/pkg/embedding"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config describes one OpenAI-compatible embeddings endpoint.
type Config struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions is sent only when positive; not every server accepts it.
	Dimensions  int
	KeyOptional bool
	// Normalize rescales vectors to unit length for servers that do not.
	Normalize bool
}

// OpenAIProvider embeds through the OpenAI embeddings endpoint or any
// compatible server reachable at BaseURL.
type OpenAIProvider struct {
	client *goopenai.Client
	cfg    Config
}

var _ embedding.BatchProvider = (*OpenAIProvider)(nil)

func New(cfg Config) (*OpenAIProvider, error) {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.APIKey == "" {
		if !cfg.KeyOptional {
			return nil, fmt.Errorf("%s embeddings: api key is required", cfg.Name)
		}
		cfg.APIKey = "unused"
	}
	if cfg.Model == "" {
		cfg.Model = string(goopenai.SmallEmbedding3)
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: goopenai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

func NewOpenAIProvider(apiKey, baseURL, model string, dimensions int) (*OpenAIProvider, error) {
	return New(Config{APIKey: apiKey, BaseURL: baseURL, Model: model, Dimensions: dimensions})
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	resps, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return resps[0], nil
}

// GenerateBatch ignores taskType; compatible servers have no equivalent.
func (p *OpenAIProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*embedding.EmbeddingResponse, error) {
	resp, err := p.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input:      texts,
		Model:      goopenai.EmbeddingModel(p.cfg.Model),
		Dimensions: p.cfg.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", p.cfg.Name, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", p.cfg.Name, len(resp.Data), len(texts))
	}

	out := make([]*embedding.EmbeddingResponse, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("%s returned out of range index %d", p.cfg.Name, d.Index)
		}
		values := d.Embedding
		if p.cfg.Normalize {
			values = embedding.NormalizeVector(values)
		}
		out[d.Index] = embedding.NewEmbeddingResponse(values)
	}
	return out, nil
}
