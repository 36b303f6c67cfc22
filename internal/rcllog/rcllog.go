// Package rcllog is the analyzer's structured logging layer. The core emits
// records through an abstract Sink and never assumes file I/O; front ends
// decide where records go.
package rcllog

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type classifies a log record. Minimal records are part of the analyzer's
// output protocol and are always emitted; Necessary adds progress and state
// information; Additional is full tracing.
type Type int

const (
	Minimal Type = iota
	Necessary
	Additional
)

func (t Type) String() string {
	switch t {
	case Minimal:
		return "MINIMAL"
	case Necessary:
		return "NECESSARY"
	case Additional:
		return "ADDITIONAL"
	}
	return "?"
}

// ParseType reads a type name as found in config files. Unknown names come
// back as Minimal with ok false.
func ParseType(s string) (Type, bool) {
	switch s {
	case "minimal", "MINIMAL", "Minimal":
		return Minimal, true
	case "necessary", "NECESSARY", "Necessary":
		return Necessary, true
	case "additional", "ADDITIONAL", "Additional":
		return Additional, true
	}
	return Minimal, false
}

// Record is one structured log event.
type Record struct {
	Type    Type
	Message string
	Time    time.Time
	Run     uuid.UUID
}

// Sink receives records that pass the logger's threshold.
type Sink interface {
	Emit(r Record)
}

// Logger filters records by type and forwards them to a sink. A nil *Logger
// is valid and drops everything, which keeps call sites clean in tests.
type Logger struct {
	max  Type
	sink Sink
	run  uuid.UUID
}

// New creates a logger that forwards records up to and including max to
// sink. Each logger carries a fresh run id so interleaved analyses can be
// told apart in shared sinks.
func New(max Type, sink Sink) *Logger {
	return &Logger{max: max, sink: sink, run: uuid.New()}
}

// WithMax returns a logger that shares the receiver's sink but admits
// records up to max, under a fresh run id. A nil receiver stays nil.
func (l *Logger) WithMax(max Type) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{max: max, sink: l.sink, run: uuid.New()}
}

// Run returns the logger's run id.
func (l *Logger) Run() uuid.UUID {
	if l == nil {
		return uuid.Nil
	}
	return l.run
}

// Log emits msg at type t if the logger's threshold admits it.
func (l *Logger) Log(t Type, msg string) {
	if l == nil || l.sink == nil || t > l.max {
		return
	}
	l.sink.Emit(Record{Type: t, Message: msg, Time: time.Now(), Run: l.run})
}

// Logf is Log with formatting.
func (l *Logger) Logf(t Type, format string, a ...interface{}) {
	if l == nil || l.sink == nil || t > l.max {
		return
	}
	l.Log(t, fmt.Sprintf(format, a...))
}

// WriterSink writes plain record lines to an io.Writer. It is what the CLI
// uses for its stdout protocol, where the message text is the payload.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Emit(r Record) {
	fmt.Fprintln(s.W, r.Message)
}

// ZapSink forwards records to a zap logger with the record type and run id
// as fields. Minimal and Necessary records go out at info, Additional at
// debug.
type ZapSink struct {
	L *zap.Logger
}

func NewZapSink(l *zap.Logger) ZapSink {
	return ZapSink{L: l}
}

func (s ZapSink) Emit(r Record) {
	fields := []zap.Field{
		zap.String("type", r.Type.String()),
		zap.String("run", r.Run.String()),
	}
	if r.Type == Additional {
		s.L.Debug(r.Message, fields...)
		return
	}
	s.L.Info(r.Message, fields...)
}
