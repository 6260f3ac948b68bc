package retrieval

import (
	"context"
	"testing"

	"github.com/AtomAcer/CrossExamine/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunksFrom(texts ...string) []transcript.Chunk {
	chunks := make([]transcript.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = transcript.Chunk{Position: i, Content: text}
	}
	return chunks
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Where were you", []string{"where", "were", "you"}},
		{"punctuation", "I was not present.", []string{"i", "was", "not", "present"}},
		{"mixed case and digits", "Exhibit 9B, page 12", []string{"exhibit", "9b", "page", "12"}},
		{"empty", "", nil},
		{"only punctuation", "?!...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestRetrieveRanksByTermOverlap(t *testing.T) {
	idx := New(chunksFrom(
		"The deposition began at nine in the morning.",
		"I arrived at 9pm and left before midnight.",
		"Counsel objected to the form of the question.",
	))

	matches, err := idx.Retrieve(context.Background(), "when did you arrive", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// Only the second chunk mentions arriving.
	assert.Equal(t, 1, matches[0].Chunk.Position)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestRetrieveDeterministic(t *testing.T) {
	idx := New(chunksFrom(
		"The witness said: I was not present.",
		"I arrived at 9pm.",
		"No further questions.",
	))

	first, err := idx.Retrieve(context.Background(), "Where were you at the time?", 2)
	require.NoError(t, err)

	for range 10 {
		again, err := idx.Retrieve(context.Background(), "Where were you at the time?", 2)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieveTiesByInsertionOrder(t *testing.T) {
	// Identical chunks score identically; order must stay insertion order.
	idx := New(chunksFrom(
		"objection sustained",
		"objection sustained",
		"objection sustained",
	))

	matches, err := idx.Retrieve(context.Background(), "objection", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Equal(t, i, m.Chunk.Position)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	idx := New(nil)
	matches, err := idx.Retrieve(context.Background(), "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 0, idx.Len())
}

func TestRetrieveBlankQuery(t *testing.T) {
	idx := New(chunksFrom("some testimony"))
	matches, err := idx.Retrieve(context.Background(), "  ?! ", 4)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveKClamped(t *testing.T) {
	idx := New(chunksFrom("one", "two"))
	matches, err := idx.Retrieve(context.Background(), "one two", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = idx.Retrieve(context.Background(), "one", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveCancelledContext(t *testing.T) {
	idx := New(chunksFrom("some testimony"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.Retrieve(ctx, "testimony", 1)
	assert.Error(t, err)
}

func TestDocumentRetriever(t *testing.T) {
	idx := New(chunksFrom(
		"The witness said: I was not present.",
		"I arrived at 9pm.",
	))
	retriever := DocumentRetriever{Index: idx, K: 1}

	docs, err := retriever.GetRelevantDocuments(context.Background(), "arrived 9pm")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "I arrived at 9pm.", docs[0].PageContent)
	assert.Equal(t, 1, docs[0].Metadata["position"])
}
