package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe an audio recording to text",
	Long: `Transcribe an audio recording to text using the speech-to-text service.

Examples:
  crossexamine transcribe question.wav
  crossexamine transcribe question.webm`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	path := args[0]

	audio, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}

	client, err := getSpeech()
	if err != nil {
		return err
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	text, err := client.Transcribe(cmd.Context(), audio, format)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	fmt.Println(text)
	return nil
}
