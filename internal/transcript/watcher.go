package transcript

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventOp describes what happened to a collection file.
type EventOp string

const (
	CollectionAdded   EventOp = "added"
	CollectionChanged EventOp = "changed"
	CollectionRemoved EventOp = "removed"
)

// Event signals a change to a collection's .txt file in the data directory.
type Event struct {
	Name string
	Op   EventOp
}

// Watch monitors the store's data directory for collection changes until the
// context is cancelled. Only .txt files are reported; a running session keeps
// its already-built retriever, but selectors can refresh their lists.
func (s *Store) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dataDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dataDir, err)
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".txt" {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(ev.Name), ".txt")

				var op EventOp
				switch {
				case ev.Op.Has(fsnotify.Create):
					op = CollectionAdded
				case ev.Op.Has(fsnotify.Write):
					op = CollectionChanged
				case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
					op = CollectionRemoved
				default:
					continue
				}

				select {
				case events <- Event{Name: name, Op: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("data dir watch error", "error", err)
			}
		}
	}()

	return events, nil
}
