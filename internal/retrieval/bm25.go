// Package retrieval provides an in-memory lexical BM25 index over a single
// collection's chunks. The index lives for one session and is rebuilt from
// the collection text whenever a session starts.
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

// Okapi BM25 parameters, matching the stock rank-bm25 defaults.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Match is a retrieved chunk with its relevance score.
type Match struct {
	Chunk transcript.Chunk
	Score float64
}

// Index is a rank index over one collection's chunks. Build once per session
// with New; no incremental insert.
type Index struct {
	chunks    []transcript.Chunk
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

// New builds a BM25 index over the chunks. Chunks with no tokens still occupy
// their position so tie-breaks stay in insertion order.
func New(chunks []transcript.Chunk) *Index {
	idx := &Index{
		chunks:    chunks,
		termFreqs: make([]map[string]int, len(chunks)),
		docLens:   make([]int, len(chunks)),
		docFreq:   make(map[string]int),
	}

	totalLen := 0
	for i, chunk := range chunks {
		tokens := Tokenize(chunk.Content)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			idx.docFreq[term]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}

	if len(chunks) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(chunks))
	}
	return idx
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Retrieve returns the top-k chunks ranked by BM25 score against the query.
// Ordering is deterministic: equal scores resolve by chunk insertion order.
// An empty index or blank query yields an empty result.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(idx.chunks) == 0 || k <= 0 {
		return nil, nil
	}

	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	matches := make([]Match, len(idx.chunks))
	for i, chunk := range idx.chunks {
		matches[i] = Match{Chunk: chunk, Score: idx.score(terms, i)}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// score computes the BM25 score of document i for the query terms.
func (idx *Index) score(terms []string, i int) float64 {
	tf := idx.termFreqs[i]
	n := float64(len(idx.chunks))
	norm := 1 - bm25B + bm25B*float64(idx.docLens[i])/math.Max(idx.avgDocLen, 1)

	var score float64
	for _, term := range terms {
		freq := float64(tf[term])
		if freq == 0 {
			continue
		}
		df := float64(idx.docFreq[term])
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		score += idf * freq * (bm25K1 + 1) / (freq + bm25K1*norm)
	}
	return score
}

// Tokenize lowercases text and splits it on non-alphanumeric runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
