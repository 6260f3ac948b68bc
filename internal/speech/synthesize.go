package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// SpeechFile is a synthesized answer staged on disk. Close releases the file;
// callers must Close on every path.
type SpeechFile struct {
	path string
}

// Path returns the on-disk location.
func (s *SpeechFile) Path() string {
	return s.path
}

// Bytes reads the audio content.
func (s *SpeechFile) Bytes() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read speech file: %w", err)
	}
	return data, nil
}

// Base64 returns the audio content encoded for an inline playback tag.
func (s *SpeechFile) Base64() (string, error) {
	data, err := s.Bytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Close removes the staged file. A file already gone is not an error.
func (s *SpeechFile) Close() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove speech file: %w", err)
	}
	return nil
}

// synthesisRequest is the JSON body sent to the text-to-speech endpoint.
type synthesisRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize converts the answer text to speech, streaming the audio into a
// unique answer-<id>.wav scratch file. The caller owns the returned handle.
func (c *Client) Synthesize(ctx context.Context, text string, voice Voice) (*SpeechFile, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	payload, err := json.Marshal(synthesisRequest{
		Model:          c.ttsModel,
		Voice:          string(voice),
		Input:          text,
		ResponseFormat: "wav",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("synthesis service http %d: %s", resp.StatusCode, b)
	}

	path := filepath.Join(c.workDir, fmt.Sprintf("answer-%s.wav", uuid.NewString()))
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create speech file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("stream speech: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close speech file: %w", err)
	}

	c.logger.Debug("answer synthesized", "voice", voice, "chars", len(text), "path", path)
	return &SpeechFile{path: path}, nil
}
