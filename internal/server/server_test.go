package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/AtomAcer/CrossExamine/internal/config"
	"github.com/AtomAcer/CrossExamine/internal/llm"
	"github.com/AtomAcer/CrossExamine/internal/speech"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

// stubLLM returns a fixed reply for every generation.
type stubLLM struct {
	reply string
}

func (s *stubLLM) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.reply}},
	}, nil
}

func (s *stubLLM) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return s.reply, nil
}

// stubExtractor copies fixed text instead of calling pdftotext.
type stubExtractor struct {
	text string
}

func (e stubExtractor) Extract(_ context.Context, _, txtPath string) error {
	return os.WriteFile(txtPath, []byte(e.text), 0644)
}

// fakeAudioBackend fakes the transcription and synthesis endpoints.
func fakeAudioBackend(t *testing.T, transcriptText string, wav []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio/transcriptions":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"text": transcriptText})
		case "/audio/speech":
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write(wav)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testServer(t *testing.T, answer string, backendURL string) *Server {
	t.Helper()

	dataDir := t.TempDir()
	deposition := "I saw the defendant leave at nine.\n\nThe lights in the office were off."
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "maxwell-deposition.txt"), []byte(deposition), 0644))

	store, err := transcript.NewStore(dataDir, stubExtractor{text: deposition}, nil)
	require.NoError(t, err)

	cfg := config.Config{
		SpeechBaseURL:     backendURL,
		OpenAIAPIKey:      "test-key",
		WhisperModel:      "whisper-1",
		TTSModel:          "tts-1",
		WorkDir:           t.TempDir(),
		TopK:              4,
		SummaryModel:      "gpt-3.5-turbo",
		HistoryTokenLimit: 2000,
		KeepExchanges:     4,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	model := llm.NewFromLLM(&stubLLM{reply: answer}, "test-model")
	speechClient := speech.NewClient(cfg, logger)

	return New(cfg, store, model, model, speechClient, speechClient, nil, logger)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVoicesEndpoint(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/voices")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Voices []string `json:"voices"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Adam", "Nova", "Ocean", "Onyx"}, body.Voices)
}

func TestCollectionsEndpoint(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/collections")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Collections []string `json:"collections"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"maxwell-deposition"}, body.Collections)
}

func TestUploadCollection(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(t, mw.WriteField("name", "Second Deposition"))
	fw, err := mw.CreateFormFile("pdf", "second.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/collections", mw.FormDataContentType(), &form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Collection string `json:"collection"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "second-deposition", body.Collection)
}

func TestUploadMissingName(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("pdf", "x.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/collections", mw.FormDataContentType(), &form)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func TestSessionRejectsUnknownVoice(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/session?collection=maxwell-deposition&voice=HAL")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionRejectsUnknownCollection(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/session?collection=nope&voice=Onyx")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionTurn(t *testing.T) {
	wav := []byte("RIFF-fake-wav")
	backend := fakeAudioBackend(t, "What time did the defendant leave?", wav)
	defer backend.Close()

	srv := httptest.NewServer(testServer(t, "He left at nine.", backend.URL).Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv.URL, "/ws/session?collection=maxwell-deposition&voice=Onyx"), nil)
	require.NoError(t, err)
	defer conn.Close()

	audio := base64.StdEncoding.EncodeToString([]byte("recorded-question"))
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "audio", Format: "webm", Data: audio}))

	var transcriptEvent serverEvent
	require.NoError(t, conn.ReadJSON(&transcriptEvent))
	assert.Equal(t, "transcript", transcriptEvent.Type)
	assert.Equal(t, "What time did the defendant leave?", transcriptEvent.Text)

	var answerEvent serverEvent
	require.NoError(t, conn.ReadJSON(&answerEvent))
	assert.Equal(t, "answer", answerEvent.Type)
	assert.Equal(t, "He left at nine.", answerEvent.Text)

	var audioEvent serverEvent
	require.NoError(t, conn.ReadJSON(&audioEvent))
	assert.Equal(t, "audio", audioEvent.Type)
	decoded, err := base64.StdEncoding.DecodeString(audioEvent.Data)
	require.NoError(t, err)
	assert.Equal(t, wav, decoded)
}

func TestSessionUnexpectedMessageType(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv.URL, "/ws/session?collection=maxwell-deposition&voice=Adam"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "video"}))

	var event serverEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "error", event.Type)
	assert.Equal(t, "transcription_failed", event.Kind)
}

func TestSessionTranscriptionFailureKeepsSessionOpen(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	srv := httptest.NewServer(testServer(t, "fine", backend.URL).Handler())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(srv.URL, "/ws/session?collection=maxwell-deposition&voice=Nova"), nil)
	require.NoError(t, err)
	defer conn.Close()

	audio := base64.StdEncoding.EncodeToString([]byte("recorded-question"))
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "audio", Format: "webm", Data: audio}))

	var event serverEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "error", event.Type)
	assert.Equal(t, "transcription_failed", event.Kind)

	// The socket survives the failed turn.
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "audio", Format: "webm", Data: audio}))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "error", event.Type)
}

func TestIndexPage(t *testing.T) {
	srv := httptest.NewServer(testServer(t, "fine", "http://unused.invalid").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
