package embedding

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

// EmbeddingResponse is what every provider returns for one input.
type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

func newEmbeddingResponse(values []float32) *EmbeddingResponse {
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}
}

// NewEmbeddingResponse wraps raw values for providers outside this package.
func NewEmbeddingResponse(values []float32) *EmbeddingResponse {
	return newEmbeddingResponse(values)
}
