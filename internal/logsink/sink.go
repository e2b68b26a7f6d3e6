// SPDX-License-Identifier: MPL-2.0

// Package logsink defines the leveled message sink a packaging run reports
// through, and its implementations.
package logsink

import (
	"io"
	"os"
	"slices"
	"sync"

	"github.com/octopack/octopack/internal/issue"

	"github.com/charmbracelet/log"
)

const (
	LevelDetail Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type (
	// Level is the importance of a recorded message.
	Level int

	// Sink receives the messages of a packaging run. Warnings and errors carry
	// a catalog code; hosts filter on the code, never on the message text.
	//
	// Implementations must be safe for concurrent use: archiver output is
	// delivered from the stream reader goroutines.
	Sink interface {
		Info(msg string)
		// Notice is an informational message that carries a code.
		Notice(code issue.Code, msg string)
		// Detail is a low-importance message, only shown in verbose output.
		Detail(msg string)
		Warn(code issue.Code, msg string)
		Error(code issue.Code, msg string)
	}

	// Logger is the production Sink backed by charmbracelet/log.
	Logger struct {
		l *log.Logger
	}

	// Entry is a single message captured by a Recorder.
	Entry struct {
		Level Level
		Code  issue.Code
		Msg   string
	}

	// Recorder is an in-memory Sink that keeps every message in order.
	Recorder struct {
		mu      sync.Mutex
		entries []Entry
	}

	discard struct{}
)

// Discard is a Sink that drops every message.
var Discard Sink = discard{}

func (l Level) String() string {
	switch l {
	case LevelDetail:
		return "detail"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// NewLogger creates a charmbracelet/log backed sink writing to w.
// When w is nil, os.Stderr is used. Detail messages are only printed
// when verbose is set.
func NewLogger(w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &Logger{
		l: log.NewWithOptions(w, log.Options{
			Prefix: "octopack",
			Level:  level,
		}),
	}
}

// With returns a sink whose messages carry the given key/value pairs.
func (s *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: s.l.With(keyvals...)}
}

func (s *Logger) Info(msg string)   { s.l.Info(msg) }
func (s *Logger) Detail(msg string) { s.l.Debug(msg) }

func (s *Logger) Notice(code issue.Code, msg string) {
	s.l.Info(msg, "code", code)
}

func (s *Logger) Warn(code issue.Code, msg string) {
	s.l.Warn(msg, "code", code)
}

func (s *Logger) Error(code issue.Code, msg string) {
	s.l.Error(msg, "code", code)
}

func (discard) Info(string)               {}
func (discard) Notice(issue.Code, string) {}
func (discard) Detail(string)             {}
func (discard) Warn(issue.Code, string)   {}
func (discard) Error(issue.Code, string)  {}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Info(msg string)   { r.add(LevelInfo, "", msg) }
func (r *Recorder) Detail(msg string) { r.add(LevelDetail, "", msg) }

func (r *Recorder) Notice(code issue.Code, msg string) {
	r.add(LevelInfo, code, msg)
}

func (r *Recorder) Warn(code issue.Code, msg string) {
	r.add(LevelWarn, code, msg)
}

func (r *Recorder) Error(code issue.Code, msg string) {
	r.add(LevelError, code, msg)
}

func (r *Recorder) add(level Level, code issue.Code, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Code: code, Msg: msg})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// WithCode returns the recorded entries carrying code.
func (r *Recorder) WithCode(code issue.Code) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

// AtLevel returns the recorded entries of the given level.
func (r *Recorder) AtLevel(level Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
