package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AtomAcer/CrossExamine/internal/llm"
	"github.com/AtomAcer/CrossExamine/internal/retrieval"
)

// Generator is the two prompt stages the pipeline needs from the chat model.
// *llm.Model satisfies this.
type Generator interface {
	Contextualize(ctx context.Context, history []llm.ChatMessage, input string) (string, error)
	AnswerAsWitness(ctx context.Context, history []llm.ChatMessage, question, retrieved string) (string, error)
}

// Retriever returns the top-k chunks for a query. *retrieval.Index satisfies
// this.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retrieval.Match, error)
}

// Result is one completed pipeline turn. The caller updates history and the
// conversation log.
type Result struct {
	RequestID       string
	Question        string
	StandaloneQuery string
	Answer          string
	Sources         []retrieval.Match
	Elapsed         time.Duration
}

// Pipeline runs contextualize -> retrieve -> answer for one session.
type Pipeline struct {
	model     Generator
	retriever Retriever
	topK      int
	logger    *slog.Logger
}

// NewPipeline wires the pipeline. topK <= 0 falls back to 4.
func NewPipeline(model Generator, retriever Retriever, topK int, logger *slog.Logger) *Pipeline {
	if topK <= 0 {
		topK = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{model: model, retriever: retriever, topK: topK, logger: logger}
}

// Answer runs one turn. With no history the contextualize stage is skipped
// and the input is used as the retrieval query unchanged. Failures carry a
// TurnError kind; history is never mutated here.
func (p *Pipeline) Answer(ctx context.Context, history *History, input string) (Result, error) {
	start := time.Now()
	requestID := uuid.NewString()

	messages := history.Messages()

	standalone := input
	if len(messages) > 0 {
		rewritten, err := p.model.Contextualize(ctx, messages, input)
		if err != nil {
			return Result{}, NewTurnError(KindGenerationFailed, err)
		}
		if strings.TrimSpace(rewritten) != "" {
			standalone = rewritten
		}
	}

	matches, err := p.retriever.Retrieve(ctx, standalone, p.topK)
	if err != nil {
		return Result{}, NewTurnError(KindRetrievalEmpty, err)
	}
	if len(matches) == 0 {
		return Result{}, NewTurnError(KindRetrievalEmpty,
			fmt.Errorf("no transcript passages matched %q", standalone))
	}

	answer, err := p.model.AnswerAsWitness(ctx, messages, input, formatContext(matches))
	if err != nil {
		return Result{}, NewTurnError(KindGenerationFailed, err)
	}

	result := Result{
		RequestID:       requestID,
		Question:        input,
		StandaloneQuery: standalone,
		Answer:          answer,
		Sources:         matches,
		Elapsed:         time.Since(start),
	}

	p.logger.Debug("turn answered",
		"request_id", requestID,
		"sources", len(matches),
		"duration_ms", result.Elapsed.Milliseconds(),
	)
	return result, nil
}

// formatContext joins retrieved chunks for the answer prompt.
func formatContext(matches []retrieval.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Chunk.Content)
	}
	return strings.Join(parts, "\n---\n")
}
