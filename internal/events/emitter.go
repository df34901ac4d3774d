package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives the events of one request. An error means the consumer is
// gone and the request should stop.
type Sink interface {
	Emit(ctx context.Context, evt Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, evt Event) error

func (f SinkFunc) Emit(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

// Emitter scopes events to the session in the context, logs them and
// forwards them to a sink. Calls to the sink are serialized, so sinks need
// not be safe for concurrent use.
type Emitter struct {
	mu   sync.Mutex
	sink Sink
	log  logrus.FieldLogger
}

// NewEmitter wraps sink. A nil sink discards events.
func NewEmitter(sink Sink, log logrus.FieldLogger) *Emitter {
	if sink == nil {
		sink = Discard
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Emitter{sink: sink, log: log}
}

// Emit fills the session key from ctx when missing and forwards evt.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if evt.SessionKey == "" {
		if session := SessionFromContext(ctx); session != "" {
			evt.SessionKey = session
		}
	}
	logEvent(e.log, evt)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sink.Emit(ctx, evt)
}

// Recorder is a Sink that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Name, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}
