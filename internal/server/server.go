// Package server provides the web front end: an embedded single page plus a
// WebSocket session endpoint that runs the record-transcribe-answer-speak
// loop against a transcript collection.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/AtomAcer/CrossExamine/internal/archive"
	"github.com/AtomAcer/CrossExamine/internal/config"
	"github.com/AtomAcer/CrossExamine/internal/llm"
	"github.com/AtomAcer/CrossExamine/internal/speech"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

//go:embed web/index.html
var webFS embed.FS

// maxUploadSize caps transcript PDF uploads.
const maxUploadSize = 32 << 20

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}

// Synthesizer converts answer text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice speech.Voice) (*speech.SpeechFile, error)
}

// Archiver records sessions and turns. Nil when no archive is configured.
type Archiver interface {
	CreateSession(ctx context.Context, collection, voice string) (*archive.Session, error)
	AppendTurn(ctx context.Context, sessionID surrealmodels.RecordID, requestID, question, standalone, answer string) (*archive.Turn, error)
}

// Server serves the practice UI and its WebSocket sessions.
type Server struct {
	cfg         config.Config
	store       *transcript.Store
	model       *llm.Model
	summarizer  *llm.Model
	transcriber Transcriber
	synthesizer Synthesizer
	archiver    Archiver
	logger      *slog.Logger
}

// New wires up a server. archiver may be nil.
func New(
	cfg config.Config,
	store *transcript.Store,
	model, summarizer *llm.Model,
	transcriber Transcriber,
	synthesizer Synthesizer,
	archiver Archiver,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:         cfg,
		store:       store,
		model:       model,
		summarizer:  summarizer,
		transcriber: transcriber,
		synthesizer: synthesizer,
		archiver:    archiver,
		logger:      logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/api/voices", s.handleVoices)
	mux.HandleFunc("/api/collections", s.handleCollections)
	mux.HandleFunc("/ws/session", s.handleSession)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		page, err := webFS.ReadFile("web/index.html")
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	return LoggingMiddleware(s.logger)(mux)
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket sessions stay open
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web UI available", "url", fmt.Sprintf("http://localhost:%s/", s.cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": speech.VoiceLabels()})
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		collections, err := s.store.List()
		if err != nil {
			s.logger.Error("failed to list collections", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		names := make([]string, 0, len(collections))
		for _, c := range collections {
			names = append(names, c.Name)
		}
		writeJSON(w, http.StatusOK, map[string]any{"collections": names})

	case http.MethodPost:
		s.handleUpload(w, r)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleUpload ingests a PDF transcript as a new collection. The form carries
// a "name" field and a "pdf" file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		http.Error(w, "missing collection name", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("pdf")
	if err != nil {
		http.Error(w, "missing pdf file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	pdf, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		http.Error(w, "failed to read pdf", http.StatusBadRequest)
		return
	}

	collection, err := s.store.CreateFromPDF(r.Context(), name, pdf)
	if err != nil {
		s.logger.Error("failed to ingest transcript", "name", name, "error", err)
		http.Error(w, "failed to ingest transcript", http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"collection": collection.Name})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
