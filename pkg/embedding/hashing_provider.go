package embedding

import (
	"context"
	"hash/fnv"

	"book-rag-be/pkg/utils"
)

// HashingProvider is an offline, deterministic bag-of-words embedder: each
// content token is hashed into one of dim buckets. Texts that share words
// get a positive cosine similarity, texts that share none score 0. It needs
// no network access, which makes it the default for tests and local seeding.
type HashingProvider struct {
	dim int
}

func NewHashingProvider(dim int) *HashingProvider {
	if dim <= 0 {
		dim = 768
	}
	return &HashingProvider{dim: dim}
}

func (p *HashingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newEmbeddingResponse(p.vector(text)), nil
}

func (p *HashingProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*EmbeddingResponse, len(texts))
	for i, t := range texts {
		out[i] = newEmbeddingResponse(p.vector(t))
	}
	return out, nil
}

func (p *HashingProvider) vector(text string) []float32 {
	vec := make([]float32, p.dim)
	for _, tok := range utils.ContentTokens(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(p.dim)] += 1
	}
	return NormalizeVector(vec)
}
