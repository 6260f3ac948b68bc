// Package cli provides the command-line interface for crossexamine.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AtomAcer/CrossExamine/internal/config"
	"github.com/AtomAcer/CrossExamine/internal/llm"
	"github.com/AtomAcer/CrossExamine/internal/speech"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and transcript store
	cfg        config.Config
	logCleanup func() error
	store      *transcript.Store

	// Lazy-initialized LLM and speech components
	model        *llm.Model
	summarizer   *llm.Model
	speechClient *speech.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "crossexamine",
	Short: "Practice cross examination against deposition transcripts",
	Long: `Crossexamine turns a deposition transcript into a witness you can question.

Ingest a transcript PDF as a collection, then ask questions out loud (web UI)
or typed (terminal). Answers come only from what the witness actually said,
spoken back in a synthesized voice.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		log, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		logCleanup = cleanup

		var err error
		store, err = transcript.NewStore(cfg.DataDir, nil, log)
		if err != nil {
			return fmt.Errorf("open transcript store: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// ensureAPIKey prompts for the OpenAI key when the provider needs one and
// none is configured. The key is read without echo.
func ensureAPIKey() error {
	if cfg.LLMProvider != config.ProviderOpenAI || cfg.OpenAIAPIKey != "" {
		return nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	fmt.Fprint(os.Stderr, "OpenAI API key: ")
	key, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read api key: %w", err)
	}
	if len(key) == 0 {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	cfg.OpenAIAPIKey = string(key)
	return nil
}

// getModels lazily initializes the answer and summary models.
func getModels(ctx context.Context) (*llm.Model, *llm.Model, error) {
	if model != nil {
		return model, summarizer, nil
	}
	if err := ensureAPIKey(); err != nil {
		return nil, nil, err
	}

	var err error
	model, err = llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init model: %w", err)
	}
	summarizer, err = llm.NewSummarizer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init summarizer: %w", err)
	}
	return model, summarizer, nil
}

// getSpeech lazily initializes the speech client.
func getSpeech() (*speech.Client, error) {
	if speechClient != nil {
		return speechClient, nil
	}
	if err := ensureAPIKey(); err != nil {
		return nil, err
	}
	speechClient = speech.NewClient(cfg, nil)
	return speechClient, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(sessionsCmd)
}
