package embedding

import "context"

const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// BatchProvider is implemented by providers that accept many inputs per call.
// Implementations return one response per input, in input order.
type BatchProvider interface {
	EmbeddingProvider
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([]*EmbeddingResponse, error)
}

// NamedProvider labels a provider for logs and fallback ordering.
type NamedProvider struct {
	Name     string
	Provider EmbeddingProvider
}
