// Package llm wraps langchaingo chat models for the answer pipeline.
package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/AtomAcer/CrossExamine/internal/config"
)

// Role identifies the speaker of a chat message.
type Role string

const (
	RoleExaminer Role = "human" // the lawyer asking questions
	RoleWitness  Role = "ai"    // the generated witness answers
)

// ChatMessage is one prior exchange message passed back into the model.
type ChatMessage struct {
	Role    Role
	Content string
}

// Model wraps a langchaingo chat model. Construct once at session start and
// pass explicitly to every component that needs it.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates a chat model for the configured provider.
func NewModel(ctx context.Context, cfg config.Config) (*Model, error) {
	return newModel(ctx, cfg, cfg.LLMModel)
}

// NewSummarizer creates the smaller model used to fold old history into a
// running summary.
func NewSummarizer(ctx context.Context, cfg config.Config) (*Model, error) {
	return newModel(ctx, cfg, cfg.SummaryModel)
}

func newModel(ctx context.Context, cfg config.Config, modelName string) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(modelName),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(modelName),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithModel(modelName),
			bedrock.WithClient(client),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{llm: model, modelName: modelName}, nil
}

// NewFromLLM wraps an existing langchaingo model. Used by tests.
func NewFromLLM(llm llms.Model, modelName string) *Model {
	return &Model{llm: llm, modelName: modelName}
}

// Model returns the chat model name.
func (m *Model) Model() string {
	return m.modelName
}

// generate runs one chat completion and returns the first choice.
func (m *Model) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// Contextualize rewrites the latest question into a standalone query that
// can be understood without the chat history, phrased for maximum retrieval
// match. The prompt forbids answering. Callers skip this stage when the
// history is empty.
func (m *Model) Contextualize(ctx context.Context, history []ChatMessage, input string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, contextualizePrompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, input))

	standalone, err := m.generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("contextualize: %w", err)
	}
	return standalone, nil
}

// AnswerAsWitness answers the question in character as the witness, using
// only the supplied retrieved context.
func (m *Model) AnswerAsWitness(ctx context.Context, history []ChatMessage, question, retrieved string) (string, error) {
	system := fmt.Sprintf(witnessPromptFormat, retrieved)

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	answer, err := m.generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return answer, nil
}

// Summarize folds dropped exchanges into the running summary, returning the
// new summary.
func (m *Model) Summarize(ctx context.Context, summary string, dropped []ChatMessage) (string, error) {
	var lines string
	for _, msg := range dropped {
		speaker := "Examiner"
		if msg.Role == RoleWitness {
			speaker = "Witness"
		}
		lines += fmt.Sprintf("%s: %s\n", speaker, msg.Content)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summarizePrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			fmt.Sprintf("Current summary:\n%s\n\nNew lines of examination:\n%s\nNew summary:", summary, lines)),
	}

	updated, err := m.generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return updated, nil
}

// historyMessages maps prior exchanges to langchaingo message parts.
func historyMessages(history []ChatMessage) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		msgType := llms.ChatMessageTypeHuman
		if msg.Role == RoleWitness {
			msgType = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(msgType, msg.Content))
	}
	return messages
}
