package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AtomAcer/CrossExamine/internal/speech"
)

var (
	speakVoice  string
	speakOutput string
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize text to a wav file",
	Long: `Synthesize text to a wav file using one of the witness voices.

Examples:
  crossexamine speak "I was at home that night." -o answer.wav
  crossexamine speak "I don't recall." --voice Nova -o answer.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runSpeak,
}

func init() {
	speakCmd.Flags().StringVar(&speakVoice, "voice", "Onyx",
		fmt.Sprintf("witness voice (%s)", strings.Join(speech.VoiceLabels(), ", ")))
	speakCmd.Flags().StringVarP(&speakOutput, "output", "o", "answer.wav", "output wav file")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	voice, err := speech.ParseVoice(speakVoice)
	if err != nil {
		return err
	}

	client, err := getSpeech()
	if err != nil {
		return err
	}

	file, err := client.Synthesize(cmd.Context(), args[0], voice)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	audio, err := file.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(speakOutput, audio, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", speakOutput, len(audio))
	return nil
}
