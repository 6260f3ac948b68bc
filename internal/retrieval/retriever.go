package retrieval

import (
	"context"

	"github.com/tmc/langchaingo/schema"
)

// DocumentRetriever adapts an Index to the langchaingo schema.Retriever
// interface so the index can be used anywhere the chain tooling expects one.
type DocumentRetriever struct {
	Index *Index
	K     int
}

var _ schema.Retriever = DocumentRetriever{}

// GetRelevantDocuments returns the top-K chunks as documents. Chunk position
// and score travel in the document metadata.
func (r DocumentRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	matches, err := r.Index.Retrieve(ctx, query, r.K)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, schema.Document{
			PageContent: m.Chunk.Content,
			Metadata: map[string]any{
				"position": m.Chunk.Position,
			},
			Score: float32(m.Score),
		})
	}
	return docs, nil
}
