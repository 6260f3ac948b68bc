// Package session holds the per-session conversation state and the
// contextualize-retrieve-answer pipeline.
package session

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/AtomAcer/CrossExamine/internal/llm"
)

// Summarizer folds evicted exchanges into a running summary.
// *llm.Model satisfies this.
type Summarizer interface {
	Summarize(ctx context.Context, summary string, dropped []llm.ChatMessage) (string, error)
}

// Exchange is one question/answer pair.
type Exchange struct {
	Question string
	Answer   string
}

// History is a bounded chat history buffer. Exchanges accumulate until the
// token budget is exceeded, then the oldest are folded into a running summary
// by the summarizer, keeping the most recent keep exchanges verbatim.
type History struct {
	summarizer Summarizer
	tokenLimit int
	keep       int
	countFn    func(string) int

	summary   string
	exchanges []Exchange
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithTokenCounter overrides the token counting function. Tests use this to
// avoid the tokenizer.
func WithTokenCounter(fn func(string) int) HistoryOption {
	return func(h *History) { h.countFn = fn }
}

// NewHistory creates a bounded history. model is the tokenizer reference for
// token counting; tokenLimit is the budget that triggers summarization; keep
// is how many recent exchanges stay verbatim.
func NewHistory(summarizer Summarizer, model string, tokenLimit, keep int, opts ...HistoryOption) *History {
	if tokenLimit <= 0 {
		tokenLimit = 2000
	}
	if keep <= 0 {
		keep = 4
	}
	h := &History{
		summarizer: summarizer,
		tokenLimit: tokenLimit,
		keep:       keep,
		countFn: func(text string) int {
			return llms.CountTokens(model, text)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Messages returns the history as chat messages for the model: the running
// summary (if any) as a prior witness-side recap, then the verbatim
// exchanges in order.
func (h *History) Messages() []llm.ChatMessage {
	var messages []llm.ChatMessage
	if h.summary != "" {
		messages = append(messages, llm.ChatMessage{
			Role:    llm.RoleWitness,
			Content: "Summary of the examination so far: " + h.summary,
		})
	}
	for _, ex := range h.exchanges {
		messages = append(messages,
			llm.ChatMessage{Role: llm.RoleExaminer, Content: ex.Question},
			llm.ChatMessage{Role: llm.RoleWitness, Content: ex.Answer},
		)
	}
	return messages
}

// Len returns the number of verbatim exchanges currently buffered.
func (h *History) Len() int {
	return len(h.exchanges)
}

// Summary returns the running summary of evicted exchanges.
func (h *History) Summary() string {
	return h.summary
}

// Append records a completed exchange and, if the token budget is exceeded,
// folds the oldest exchanges into the summary. A summarizer failure is
// returned but the exchange is still recorded.
func (h *History) Append(ctx context.Context, question, answer string) error {
	h.exchanges = append(h.exchanges, Exchange{Question: question, Answer: answer})

	if h.tokens() <= h.tokenLimit || len(h.exchanges) <= h.keep {
		return nil
	}
	if h.summarizer == nil {
		// No summarizer configured: evict without summarizing.
		h.exchanges = h.exchanges[len(h.exchanges)-h.keep:]
		return nil
	}

	evict := h.exchanges[:len(h.exchanges)-h.keep]
	var dropped []llm.ChatMessage
	for _, ex := range evict {
		dropped = append(dropped,
			llm.ChatMessage{Role: llm.RoleExaminer, Content: ex.Question},
			llm.ChatMessage{Role: llm.RoleWitness, Content: ex.Answer},
		)
	}

	summary, err := h.summarizer.Summarize(ctx, h.summary, dropped)
	if err != nil {
		return fmt.Errorf("summarize history: %w", err)
	}

	h.summary = summary
	h.exchanges = h.exchanges[len(h.exchanges)-h.keep:]
	return nil
}

// tokens counts the tokens of everything the history would feed the model.
func (h *History) tokens() int {
	total := h.countFn(h.summary)
	for _, ex := range h.exchanges {
		total += h.countFn(ex.Question) + h.countFn(ex.Answer)
	}
	return total
}
