// Package corpus holds the sample book content used for local runs.
package corpus

import (
	"context"
	"fmt"

	"book-rag-be/pkg/vectorindex"

	"github.com/google/uuid"
)

// Embedder is the batch side of the embedding gateway.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

const SampleBookId = "rag-handbook"

type sampleChunk struct {
	key     string
	text    string
	locator string
	page    int
	chapter string
	section string
}

var sampleChunks = []sampleChunk{
	{
		key:     "rag-definition",
		text:    "A RAG system, or retrieval augmented generation system, combines a search step with a language model. The RAG system first retrieves passages from the book and then generates an answer that uses only those passages.",
		locator: "Chapter 1",
		page:    3,
		chapter: "1",
		section: "What is RAG?",
	},
	{
		key:     "rag-retrieval",
		text:    "Retrieval in a RAG system embeds the question as a vector and searches the indexed book chunks for the nearest vectors. The most similar chunks become the context for generation.",
		locator: "Chapter 2",
		page:    14,
		chapter: "2",
		section: "Retrieval",
	},
	{
		key:     "rag-grounding",
		text:    "Grounding keeps a RAG system honest. Every generated answer is checked against the retrieved passages, and answers that are not supported by the context are flagged instead of being presented as fact.",
		locator: "Chapter 3",
		page:    27,
		chapter: "3",
		section: "Grounding",
	},
}

// SampleId is stable so reseeding overwrites instead of duplicating.
func SampleId(key string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("book-rag-be/sample/"+key))
}

// SampleRecords returns the sample chunks without vectors.
func SampleRecords() []vectorindex.Record {
	out := make([]vectorindex.Record, 0, len(sampleChunks))
	for i, c := range sampleChunks {
		page, chapter, section := c.page, c.chapter, c.section
		out = append(out, vectorindex.Record{
			Id:              SampleId(c.key).String(),
			BookId:          SampleBookId,
			Title:           "The RAG Handbook",
			Text:            c.text,
			SourceReference: c.locator,
			ChunkIndex:      i,
			Tags:            []string{"rag"},
			Metadata: vectorindex.Metadata{
				PageNumber:   &page,
				Chapter:      &chapter,
				SectionTitle: &section,
			},
		})
	}
	return out
}

// Load embeds the sample chunks and upserts them. It returns how many were
// indexed.
func Load(ctx context.Context, embedder Embedder, index vectorindex.Index) (int, error) {
	records := SampleRecords()
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed sample corpus: %w", err)
	}

	ready := make([]vectorindex.Record, 0, len(records))
	for i, r := range records {
		if vectors[i] == nil {
			continue
		}
		r.Vector = vectors[i]
		ready = append(ready, r)
	}
	if err := index.Upsert(ctx, ready...); err != nil {
		return 0, fmt.Errorf("index sample corpus: %w", err)
	}
	return len(ready), nil
}
