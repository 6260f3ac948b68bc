package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ParseSessionID resolves a user-supplied id ("session:xyz" or just "xyz")
// into a session record id.
func ParseSessionID(id string) (surrealmodels.RecordID, error) {
	id = strings.TrimPrefix(id, "session:")
	if id == "" {
		return surrealmodels.RecordID{}, fmt.Errorf("empty session id")
	}
	return surrealmodels.RecordID{Table: "session", ID: id}, nil
}

// Session is one archived practice session.
type Session struct {
	ID         surrealmodels.RecordID `json:"id"`
	Collection string                 `json:"collection"`
	Voice      string                 `json:"voice"`
	Started    time.Time              `json:"started"`
}

// Turn is one archived question/answer exchange within a session.
type Turn struct {
	ID         surrealmodels.RecordID `json:"id"`
	Session    surrealmodels.RecordID `json:"session"`
	RequestID  string                 `json:"request_id"`
	Question   string                 `json:"question"`
	Standalone string                 `json:"standalone"`
	Answer     string                 `json:"answer"`
	Asked      time.Time              `json:"asked"`
}

// CreateSession records the start of a practice session against a collection.
func (c *Client) CreateSession(ctx context.Context, collection, voice string) (*Session, error) {
	sql := `
		CREATE session SET
			collection = $collection,
			voice = $voice
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]Session](ctx, c.db, sql, map[string]any{
		"collection": collection,
		"voice":      voice,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create session: no result returned")
	}

	return &(*results)[0].Result[0], nil
}

// AppendTurn records one completed exchange in a session.
func (c *Client) AppendTurn(
	ctx context.Context,
	sessionID surrealmodels.RecordID,
	requestID, question, standalone, answer string,
) (*Turn, error) {
	sql := `
		CREATE turn SET
			session = $session,
			request_id = $request_id,
			question = $question,
			standalone = $standalone,
			answer = $answer
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]Turn](ctx, c.db, sql, map[string]any{
		"session":    sessionID,
		"request_id": requestID,
		"question":   question,
		"standalone": standalone,
		"answer":     answer,
	})
	if err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("append turn: no result returned")
	}

	return &(*results)[0].Result[0], nil
}

// ListSessions returns archived sessions, most recent first.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}

	results, err := surrealdb.Query[[]Session](ctx, c.db, `
		SELECT * FROM session ORDER BY started DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []Session{}, nil
	}
	return (*results)[0].Result, nil
}

// SessionTurns returns the exchanges of one session in the order asked.
func (c *Client) SessionTurns(ctx context.Context, sessionID surrealmodels.RecordID) ([]Turn, error) {
	results, err := surrealdb.Query[[]Turn](ctx, c.db, `
		SELECT * FROM turn WHERE session = $session ORDER BY asked ASC
	`, map[string]any{"session": sessionID})
	if err != nil {
		return nil, fmt.Errorf("session turns: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []Turn{}, nil
	}
	return (*results)[0].Result, nil
}
