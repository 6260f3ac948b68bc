package speech

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/AtomAcer/CrossExamine/internal/config"
)

// Client calls the speech-to-text and text-to-speech endpoints. Scratch audio
// files get per-request unique names under workDir and are released on every
// exit path.
type Client struct {
	baseURL      string
	apiKey       string
	whisperModel string
	ttsModel     string
	workDir      string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a speech client from configuration.
func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Client{
		baseURL:      cfg.SpeechBaseURL,
		apiKey:       cfg.OpenAIAPIKey,
		whisperModel: cfg.WhisperModel,
		ttsModel:     cfg.TTSModel,
		workDir:      workDir,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		logger:       logger,
	}
}
