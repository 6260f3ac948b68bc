package session

import "time"

// Speaker identifies a conversation log entry's author.
type Speaker string

const (
	SpeakerExaminer Speaker = "You"
	SpeakerWitness  Speaker = "Witness"
)

// LogEntry is one visible line of the session transcript.
type LogEntry struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Log is the append-only, session-scoped conversation display log. It is
// mutated only by the session orchestrator and discarded with the session.
type Log struct {
	entries []LogEntry
}

// Append adds one entry.
func (l *Log) Append(speaker Speaker, text string) {
	l.entries = append(l.entries, LogEntry{Speaker: speaker, Text: text, At: time.Now()})
}

// Entries returns the log in order. The returned slice is shared; callers
// must not mutate it.
func (l *Log) Entries() []LogEntry {
	return l.entries
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}
