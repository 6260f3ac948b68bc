package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/AtomAcer/CrossExamine/internal/archive"
	"github.com/AtomAcer/CrossExamine/internal/retrieval"
	"github.com/AtomAcer/CrossExamine/internal/session"
	"github.com/AtomAcer/CrossExamine/internal/speech"
	"github.com/AtomAcer/CrossExamine/internal/transcript"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientMessage is what the page sends over the session socket.
type clientMessage struct {
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
	Data   string `json:"data,omitempty"`
}

// serverEvent is what the session socket sends back. Kind is set on error
// events only.
type serverEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data string `json:"data,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// sessionArchive tracks the archive record backing one live session.
type sessionArchive struct {
	archiver Archiver
	session  *archive.Session
}

// handleSession opens a practice session over a WebSocket. The collection
// and voice come from query parameters; the retriever is rebuilt from the
// collection's current on-disk text. Turns are processed strictly in order.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	collectionName := r.URL.Query().Get("collection")
	voiceLabel := r.URL.Query().Get("voice")

	voice, err := speech.ParseVoice(voiceLabel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	text, err := s.store.Load(collectionName)
	if err != nil {
		http.Error(w, fmt.Sprintf("unknown collection %q", collectionName), http.StatusNotFound)
		return
	}

	index := retrieval.New(transcript.SplitText(text))
	pipeline := session.NewPipeline(s.model, index, s.cfg.TopK, s.logger)
	history := session.NewHistory(s.summarizer, s.cfg.SummaryModel, s.cfg.HistoryTokenLimit, s.cfg.KeepExchanges)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("collection", collectionName, "voice", voiceLabel)
	logger.Info("session opened", "chunks", index.Len())

	var archived *sessionArchive
	if s.archiver != nil {
		record, err := s.archiver.CreateSession(r.Context(), collectionName, string(voice))
		if err != nil {
			logger.Warn("failed to archive session", "error", err)
		} else {
			archived = &sessionArchive{archiver: s.archiver, session: record}
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("session closed unexpectedly", "error", err)
			} else {
				logger.Info("session closed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.sendError(conn, logger, session.NewTurnError(session.KindTranscriptionFailed,
				fmt.Errorf("malformed message: %w", err)))
			continue
		}
		if msg.Type != "audio" {
			s.sendError(conn, logger, session.NewTurnError(session.KindTranscriptionFailed,
				fmt.Errorf("unexpected message type %q", msg.Type)))
			continue
		}

		s.runTurn(r.Context(), conn, logger, msg, voice, pipeline, history, archived)
	}
}

// runTurn processes one audio question end to end. On failure an error event
// carrying the turn's kind is sent and the history is left untouched.
func (s *Server) runTurn(
	ctx context.Context,
	conn *websocket.Conn,
	logger *slog.Logger,
	msg clientMessage,
	voice speech.Voice,
	pipeline *session.Pipeline,
	history *session.History,
	archived *sessionArchive,
) {
	audio, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		s.sendError(conn, logger, session.NewTurnError(session.KindTranscriptionFailed,
			fmt.Errorf("decode audio: %w", err)))
		return
	}

	question, err := s.transcriber.Transcribe(ctx, audio, msg.Format)
	if err != nil {
		s.sendError(conn, logger, session.NewTurnError(session.KindTranscriptionFailed, err))
		return
	}
	if err := s.sendEvent(conn, serverEvent{Type: "transcript", Text: question}); err != nil {
		logger.Warn("failed to send transcript event", "error", err)
		return
	}

	result, err := pipeline.Answer(ctx, history, question)
	if err != nil {
		s.sendError(conn, logger, err)
		return
	}
	if err := s.sendEvent(conn, serverEvent{Type: "answer", Text: result.Answer}); err != nil {
		logger.Warn("failed to send answer event", "error", err)
		return
	}

	file, err := s.synthesizer.Synthesize(ctx, result.Answer, voice)
	if err != nil {
		s.sendError(conn, logger, session.NewTurnError(session.KindSynthesisFailed, err))
		return
	}
	encoded, err := file.Base64()
	closeErr := file.Close()
	if err != nil {
		s.sendError(conn, logger, session.NewTurnError(session.KindSynthesisFailed, err))
		return
	}
	if closeErr != nil {
		logger.Warn("failed to release speech file", "error", closeErr)
	}
	if err := s.sendEvent(conn, serverEvent{Type: "audio", Data: encoded}); err != nil {
		logger.Warn("failed to send audio event", "error", err)
		return
	}

	if err := history.Append(ctx, question, result.Answer); err != nil {
		logger.Warn("failed to update history", "error", err)
	}

	if archived != nil {
		if _, err := archived.archiver.AppendTurn(ctx, archived.session.ID,
			result.RequestID, question, result.StandaloneQuery, result.Answer); err != nil {
			logger.Warn("failed to archive turn", "error", err)
		}
	}

	logger.Info("turn completed",
		"request_id", result.RequestID,
		"sources", len(result.Sources),
		"duration_ms", result.Elapsed.Milliseconds())
}

func (s *Server) sendEvent(conn *websocket.Conn, event serverEvent) error {
	return conn.WriteJSON(event)
}

// sendError surfaces a turn failure to the client with its kind. History is
// never touched on an error path, so the next question sees the same context.
func (s *Server) sendError(conn *websocket.Conn, logger *slog.Logger, err error) {
	kind := session.KindOf(err)
	logger.Warn("turn failed", "kind", kind, "error", err)
	if sendErr := s.sendEvent(conn, serverEvent{
		Type: "error",
		Kind: string(kind),
		Text: err.Error(),
	}); sendErr != nil {
		logger.Warn("failed to send error event", "error", sendErr)
	}
}
