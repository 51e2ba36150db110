// Package events publishes widget lifecycle events (sessions started and
// ended, recoveries, failed dispatches, feedback, handovers) for downstream
// analytics. Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind names a lifecycle event.
type Kind string

const (
	SessionStarted    Kind = "session.started"
	SessionEnded      Kind = "session.ended"
	SessionDropped    Kind = "session.dropped"
	SessionRecovered  Kind = "session.recovered"
	MessageDelivered  Kind = "message.delivered"
	DispatchFailed    Kind = "dispatch.failed"
	FeedbackSubmitted Kind = "feedback.submitted"
	HandoverRequested Kind = "handover.requested"
)

// Event is one lifecycle occurrence. IDs are ULIDs so consumers can sort
// by creation time.
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	ProfileID string            `json:"profile_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	At        time.Time         `json:"at"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(kind Kind, profileID, sessionID string) Event {
	now := time.Now().UTC()
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Kind:      kind,
		ProfileID: profileID,
		SessionID: sessionID,
		At:        now,
	}
}

// With returns a copy of e with k=v added to its attributes.
func (e Event) With(k, v string) Event {
	attrs := make(map[string]string, len(e.Attrs)+1)
	for ak, av := range e.Attrs {
		attrs[ak] = av
	}
	attrs[k] = v
	e.Attrs = attrs
	return e
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

// Kinds returns the kinds recorded so far, in publish order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
