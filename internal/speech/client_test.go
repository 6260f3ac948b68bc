package speech

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtomAcer/CrossExamine/internal/config"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.Config{
		SpeechBaseURL: baseURL,
		OpenAIAPIKey:  "test-key",
		WhisperModel:  "whisper-1",
		TTSModel:      "tts-1",
		WorkDir:       t.TempDir(),
	}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func scratchFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestTranscribe(t *testing.T) {
	var gotModel, gotLanguage, gotFile, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotFile = header.Filename

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Where were you on the night in question?"}`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	text, err := client.Transcribe(context.Background(), []byte("fake-audio"), "webm")
	require.NoError(t, err)

	assert.Equal(t, "Where were you on the night in question?", text)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "en", gotLanguage)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.True(t, strings.HasPrefix(gotFile, "question-"))
	assert.True(t, strings.HasSuffix(gotFile, ".webm"))

	assert.Empty(t, scratchFiles(t, client.workDir), "scratch audio should be removed after transcription")
}

func TestTranscribeEmptyAudio(t *testing.T) {
	client := testClient(t, "http://unused.invalid")

	_, err := client.Transcribe(context.Background(), nil, "wav")
	require.Error(t, err)
}

func TestTranscribeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.Transcribe(context.Background(), []byte("fake-audio"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	assert.Empty(t, scratchFiles(t, client.workDir), "scratch audio should be removed on failure too")
}

func TestSynthesize(t *testing.T) {
	audio := []byte("RIFF-fake-wav-bytes")

	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audio/speech", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)

		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(audio)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	file, err := client.Synthesize(context.Background(), "I was at home.", "onyx")
	require.NoError(t, err)

	assert.Contains(t, gotBody, `"model":"tts-1"`)
	assert.Contains(t, gotBody, `"voice":"onyx"`)
	assert.Contains(t, gotBody, `"input":"I was at home."`)
	assert.Contains(t, gotBody, `"response_format":"wav"`)

	assert.True(t, strings.HasPrefix(filepath.Base(file.Path()), "answer-"))
	assert.True(t, strings.HasSuffix(file.Path(), ".wav"))

	data, err := file.Bytes()
	require.NoError(t, err)
	assert.Equal(t, audio, data)

	encoded, err := file.Base64()
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, audio, decoded)

	require.NoError(t, file.Close())
	assert.Empty(t, scratchFiles(t, client.workDir), "speech file should be gone after Close")
}

func TestSynthesizeCloseTwice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	file, err := client.Synthesize(context.Background(), "Objection.", "alloy")
	require.NoError(t, err)

	require.NoError(t, file.Close())
	require.NoError(t, file.Close(), "closing an already removed file is not an error")
}

func TestSynthesizeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid voice", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.Synthesize(context.Background(), "Answer.", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	assert.Empty(t, scratchFiles(t, client.workDir))
}

func TestSynthesizeEmptyText(t *testing.T) {
	client := testClient(t, "http://unused.invalid")

	_, err := client.Synthesize(context.Background(), "", "alloy")
	require.Error(t, err)
}

func TestUniqueScratchNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	first, err := client.Synthesize(context.Background(), "One.", "nova")
	require.NoError(t, err)
	second, err := client.Synthesize(context.Background(), "Two.", "nova")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path(), second.Path())
	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
}
