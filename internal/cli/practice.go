package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/AtomAcer/CrossExamine/internal/retrieval"
	"github.com/AtomAcer/CrossExamine/internal/session"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

var practiceCollection string

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Interactive questioning session in the terminal",
	Long: `Interactive questioning session in the terminal.

Type questions to the witness; answers come only from the transcript.
Questions are typed rather than spoken. Use the web UI for voice.`,
	Args: cobra.NoArgs,
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().StringVarP(&practiceCollection, "collection", "c", "", "transcript collection (required)")
	_ = practiceCmd.MarkFlagRequired("collection")
}

// Theme holds the color scheme for the practice display.
type Theme struct {
	Examiner lipgloss.Color
	Witness  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Examiner: lipgloss.Color("#5FAFD7"), // light blue
	Witness:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) examinerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Examiner).Bold(true)
}

func (t Theme) witnessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Witness).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// turnMsg carries the outcome of one question.
type turnMsg struct {
	question string
	answer   string
	err      error
}

// practiceModel is the bubbletea model for the questioning loop.
type practiceModel struct {
	pipeline *session.Pipeline
	history  *session.History
	log      *session.Log
	input    textinput.Model
	theme    Theme
	waiting  bool
	lastErr  error
	quitting bool
}

// newPracticeModel creates a practice model over an indexed collection.
func newPracticeModel(pipeline *session.Pipeline, history *session.History) practiceModel {
	ti := textinput.New()
	ti.Placeholder = "Ask the witness a question"
	ti.Focus()

	return practiceModel{
		pipeline: pipeline,
		history:  history,
		log:      &session.Log{},
		input:    ti,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m practiceModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model.
func (m practiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if m.waiting {
				return m, nil
			}
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			m.lastErr = nil
			m.log.Append(session.SpeakerExaminer, question)
			return m, m.askWitness(question)
		}

	case turnMsg:
		m.waiting = false
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.log.Append(session.SpeakerWitness, msg.answer)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the session transcript and the input line.
func (m practiceModel) View() tea.View {
	var b strings.Builder

	for _, entry := range m.log.Entries() {
		switch entry.Speaker {
		case session.SpeakerExaminer:
			b.WriteString(m.theme.examinerStyle().Render(string(entry.Speaker)+":") + " " + entry.Text + "\n")
		case session.SpeakerWitness:
			b.WriteString(m.theme.witnessStyle().Render(string(entry.Speaker)+":") + " " + entry.Text + "\n\n")
		}
	}

	if m.lastErr != nil {
		b.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("✗ %s", m.lastErr)) + "\n\n")
	}

	if m.waiting {
		b.WriteString(m.theme.hintStyle().Render("The witness is thinking...") + "\n")
	} else {
		b.WriteString(m.input.View() + "\n")
		b.WriteString(m.theme.hintStyle().Render("Enter to ask, Esc to leave") + "\n")
	}

	return tea.NewView(b.String())
}

// askWitness runs one full turn off the update loop. Input is disabled while
// a turn is in flight, so the history is never touched concurrently.
func (m practiceModel) askWitness(question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := m.pipeline.Answer(ctx, m.history, question)
		if err != nil {
			return turnMsg{question: question, err: err}
		}
		if err := m.history.Append(ctx, question, result.Answer); err != nil {
			return turnMsg{question: question, answer: result.Answer, err: err}
		}
		return turnMsg{question: question, answer: result.Answer}
	}
}

func runPractice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	text, err := store.Load(practiceCollection)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	answerModel, summaryModel, err := getModels(ctx)
	if err != nil {
		return err
	}

	index := retrieval.New(transcript.SplitText(text))
	pipeline := session.NewPipeline(answerModel, index, cfg.TopK, nil)
	history := session.NewHistory(summaryModel, cfg.SummaryModel, cfg.HistoryTokenLimit, cfg.KeepExchanges)

	p := tea.NewProgram(newPracticeModel(pipeline, history))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("practice UI error: %w", err)
	}
	return nil
}
