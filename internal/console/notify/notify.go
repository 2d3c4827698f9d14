// Package notify delivers transient user-facing notifications.
package notify

import (
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"keyring/internal/client"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Err reports err through n using the client error taxonomy.
func Err(n Notifier, err error) {
	if err == nil {
		return
	}
	n.Error(client.Message(err))
}

// LogNotifier prints notifications as human-readable log lines.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(w io.Writer, noColor bool) *LogNotifier {
	out := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.Kitchen}
	return &LogNotifier{logger: zerolog.New(out).With().Timestamp().Logger()}
}

func (n *LogNotifier) Success(msg string) {
	n.logger.Info().Msg(msg)
}

func (n *LogNotifier) Error(msg string) {
	n.logger.Error().Msg(msg)
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Success(msg string) {
	r.add(LevelSuccess, msg)
}

func (r *Recorder) Error(msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
