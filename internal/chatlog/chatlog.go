// Package chatlog is an in-memory ring buffer of recent chat lines,
// fed unconditionally by the dispatcher's chat handler (spec.md §4.2,
// §9 — logging happens before the veto check) and read by the admin
// HTTP surface.
package chatlog

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Line is a single logged chat message.
type Line struct {
	At      time.Time `json:"at"`
	ID      uint32    `json:"id"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
}

// Buffer is a fixed-capacity ring of the most recent Lines, safe for
// concurrent use from the dispatcher's per-client goroutines and the
// admin API's read path.
type Buffer struct {
	mu     sync.Mutex
	lines  []Line
	cap    int
	logger *zap.Logger
}

// New creates a Buffer holding at most capacity lines. capacity <= 0 is
// treated as 1.
func New(capacity int, logger *zap.Logger) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{cap: capacity, logger: logger}
}

// LogChat implements dispatch.ChatLogger. The line is stamped with the
// current wall-clock time.
func (b *Buffer) LogChat(name string, id uint32, message string) {
	b.record(time.Now(), name, id, message)
}

func (b *Buffer) record(at time.Time, name string, id uint32, message string) {
	line := Line{At: at, ID: id, Name: name, Message: message}

	b.mu.Lock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.cap {
		b.lines = b.lines[len(b.lines)-b.cap:]
	}
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Info("chat",
			zap.Uint32("id", id),
			zap.String("name", name),
			zap.String("message", message),
		)
	}
}

// Recent returns a copy of the currently buffered lines, oldest first.
func (b *Buffer) Recent() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// String renders a line the way it appears in operator-facing output.
func (l Line) String() string {
	return fmt.Sprintf("[%s] %s (%d): %s", l.At.Format(time.RFC3339), l.Name, l.ID, l.Message)
}
