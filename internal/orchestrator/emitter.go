package orchestrator

import (
	"context"

	"repodoc/internal/docgen"
)

// EventType tags progress events emitted while a run executes.
type EventType int

const (
	EventUnspecified EventType = iota
	EventState                 // lifecycle transition
	EventTaskStart             // a task is about to be evaluated
	EventTaskDone              // a task produced its result
)

// Event is one progress notification. Index is 1-based within Total.
type Event struct {
	Type   EventType
	State  State
	Kind   docgen.ArtifactKind
	Result *docgen.Result
	Index  int
	Total  int
}

// Emitter receives progress events. Implementations must not block.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

type emitterKey struct{}

// WithEmitter attaches an emitter to the context.
func WithEmitter(ctx context.Context, e Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, e)
}

// EmitterFrom retrieves the emitter from context, or a no-op emitter.
func EmitterFrom(ctx context.Context) Emitter {
	if e, ok := ctx.Value(emitterKey{}).(Emitter); ok && e != nil {
		return e
	}
	return noopEmitter{}
}

type noopEmitter struct{}

func (noopEmitter) Emit(Event) {}

// ChannelEmitter forwards events to a channel, dropping them when it is full.
type ChannelEmitter struct {
	Ch chan<- Event
}

func (e *ChannelEmitter) Emit(ev Event) {
	select {
	case e.Ch <- ev:
	default:
	}
}
