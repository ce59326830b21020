// Package observability implements the NDJSON structured event sink (C11):
// one JSON object per line on the process's standard error, carrying trace
// ids so a single launch attempt can be reconstructed from the log stream.
package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	Trace Level = "TRACE"
	Debug Level = "DEBUG"
	Info  Level = "INFO"
	Warn  Level = "WARN"
	Error Level = "ERROR"
)

// Event is a single structured observability record.
type Event struct {
	Timestamp string      `json:"ts"`
	Level     Level       `json:"level"`
	EventCode string      `json:"event_code"`
	Message   string      `json:"message"`
	TraceID   string      `json:"trace_id"`
	SpanID    string      `json:"span_id"`
	ExeHash   string      `json:"exe_hash"`
	Component string      `json:"component"`
	Context   interface{} `json:"context"`
}

// Sink emits Events as NDJSON to an underlying writer. Safe for concurrent
// use; a single mutex guarantees full lines are never interleaved.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// NewTraceID mints a fresh UUIDv4 trace id, one per orchestrator
// invocation.
func NewTraceID() string { return uuid.NewString() }

func nowRFC3339Millis() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Emit writes a single NDJSON line. The timestamp is always stamped at
// call time.
func (s *Sink) Emit(level Level, eventCode, message, traceID, spanID, exeHash, component string, context interface{}) error {
	event := Event{
		Timestamp: nowRFC3339Millis(),
		Level:     level,
		EventCode: eventCode,
		Message:   message,
		TraceID:   traceID,
		SpanID:    spanID,
		ExeHash:   exeHash,
		Component: component,
		Context:   context,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(append(encoded, '\n')); err != nil {
		return err
	}
	return nil
}

// Emitter binds a Sink to the invocation-scoped identifiers (trace id,
// exe hash) so call sites only need to pass a span/component/code/message.
type Emitter struct {
	sink    *Sink
	traceID string
	exeHash string
}

func NewEmitter(sink *Sink, traceID, exeHash string) *Emitter {
	return &Emitter{sink: sink, traceID: traceID, exeHash: exeHash}
}

func (e *Emitter) Emit(level Level, component, spanID, eventCode, message string, context interface{}) {
	// Observability failures must never abort a launch; best effort only.
	_ = e.sink.Emit(level, eventCode, message, e.traceID, spanID, e.exeHash, component, context)
}

func (e *Emitter) Info(component, spanID, eventCode, message string, context interface{}) {
	e.Emit(Info, component, spanID, eventCode, message, context)
}

func (e *Emitter) Warn(component, spanID, eventCode, message string, context interface{}) {
	e.Emit(Warn, component, spanID, eventCode, message, context)
}

func (e *Emitter) ErrorEvent(component, spanID, eventCode, message string, context interface{}) {
	e.Emit(Error, component, spanID, eventCode, message, context)
}
