package domain

import (
	"context"
	"time"
)

// Phase is a step of the per-call evaluation state machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseOpening   Phase = "opening"
	PhaseWriting   Phase = "writing"
	PhaseReading   Phase = "reading"
	PhaseClosing   Phase = "closing"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEvaluationStart EventType = "evaluation_start"
	EventPhase           EventType = "phase"
	EventEvaluationEnd   EventType = "evaluation_end"
	EventTokenInserted   EventType = "token_inserted"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// EvaluationEvent describes a step of one Evaluate call.
type EvaluationEvent struct {
	EventBase
	Channel    string        `json:"channel"`
	Expression string        `json:"expression"`
	Phase      Phase         `json:"phase"`
	Response   string        `json:"response,omitempty"`
	Result     string        `json:"result,omitempty"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// TokenEvent describes an editor insertion.
type TokenEvent struct {
	EventBase
	Token TokenID    `json:"token"`
	Class TokenClass `json:"class"`
}

// EvaluationHooks defines callbacks for observability.
type EvaluationHooks struct {
	OnEvaluationStart func(context.Context, *EvaluationEvent)
	OnPhase           func(context.Context, *EvaluationEvent)
	OnEvaluationEnd   func(context.Context, *EvaluationEvent)
	OnTokenInserted   func(context.Context, *TokenEvent)
}

// Merge returns hooks that call h first and then other.
func (h EvaluationHooks) Merge(other EvaluationHooks) EvaluationHooks {
	return EvaluationHooks{
		OnEvaluationStart: chain(h.OnEvaluationStart, other.OnEvaluationStart),
		OnPhase:           chain(h.OnPhase, other.OnPhase),
		OnEvaluationEnd:   chain(h.OnEvaluationEnd, other.OnEvaluationEnd),
		OnTokenInserted:   chain(h.OnTokenInserted, other.OnTokenInserted),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
