// Package speech talks to the OpenAI audio endpoints: speech-to-text for the
// recorded question and text-to-speech for the witness answer.
package speech

import (
	"fmt"
	"sort"
)

// Voice is a synthesis voice identifier accepted by the TTS service.
type Voice string

// voicesByLabel maps the user-facing labels to synthesis voices. The UI only
// offers these labels, so unknown identifiers are unconstructible from it.
var voicesByLabel = map[string]Voice{
	"Adam":  "alloy",
	"Onyx":  "onyx",
	"Nova":  "nova",
	"Ocean": "shimmer",
}

// VoiceLabels returns the selectable labels, sorted.
func VoiceLabels() []string {
	labels := make([]string, 0, len(voicesByLabel))
	for label := range voicesByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ParseVoice resolves a label to its synthesis voice.
func ParseVoice(label string) (Voice, error) {
	voice, ok := voicesByLabel[label]
	if !ok {
		return "", fmt.Errorf("unknown voice %q (choose one of %v)", label, VoiceLabels())
	}
	return voice, nil
}
