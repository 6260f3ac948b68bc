package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/AtomAcer/CrossExamine/internal/retrieval"
	"github.com/AtomAcer/CrossExamine/internal/session"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

var (
	askCollection string
	askSources    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the witness a single question",
	Long: `Ask the witness a single question against a transcript collection.

The question is answered only from what the transcript contains.

Examples:
  crossexamine ask -c maxwell-deposition "Where were you that night?"
  crossexamine ask -c maxwell-deposition --sources "Who else was present?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "transcript collection (required)")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "show the transcript passages behind the answer")
	_ = askCmd.MarkFlagRequired("collection")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := cmd.Context()

	text, err := store.Load(askCollection)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	answerModel, _, err := getModels(ctx)
	if err != nil {
		return err
	}

	index := retrieval.New(transcript.SplitText(text))
	pipeline := session.NewPipeline(answerModel, index, cfg.TopK, nil)

	result, err := pipeline.Answer(ctx, session.NewHistory(nil, cfg.SummaryModel, cfg.HistoryTokenLimit, cfg.KeepExchanges), question)
	if err != nil {
		if session.KindOf(err) == session.KindRetrievalEmpty {
			fmt.Println("The transcript has nothing relevant to that question.")
			return nil
		}
		return err
	}

	fmt.Println(witnessStyle.Render("Witness:"), result.Answer)

	if askSources {
		fmt.Println()
		for _, match := range result.Sources {
			fmt.Println(sourceStyle.Render(fmt.Sprintf("[chunk %d, score %.2f]", match.Chunk.Position, match.Score)))
			fmt.Println(match.Chunk.Content)
			fmt.Println()
		}
	}
	return nil
}

var (
	witnessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true)
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
)
