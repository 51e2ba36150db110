// Package widget is the conversation core of the hotel chat widget.
//
// A Widget owns one transcript and at most one active session id. It restores
// the persisted session on creation, loads that session's history when first
// opened, dispatches user messages to the assistant while looking up matching
// rooms locally, recovers once from a rejected session, and tears the session
// down after the feedback survey.
//
// All methods are safe for concurrent use. Network calls run without holding
// the widget lock, so separate sends are not serialized: each appends its
// reply when it resolves.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/moonpalace/concierge/internal/domain"
	"github.com/moonpalace/concierge/internal/events"
	"github.com/moonpalace/concierge/internal/hotelapi"
)

var (
	// ErrEmptyMessage is returned by Send for blank text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInvalidRating is returned by SubmitFeedback for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrNoSession is returned by operations that need an active session.
	ErrNoSession = errors.New("no active session")
)

// DefaultFeedbackDelay is the pause between a feedback attempt and teardown.
const DefaultFeedbackDelay = 1500 * time.Millisecond

// User is the signed-in guest, if any.
type User struct {
	ID   string
	Name string
}

// Options wires a Widget to its collaborators. Store and Assistant are
// required; everything else has a default.
type Options struct {
	Store     SessionStore
	Assistant Assistant
	Suggester Suggester
	Publisher events.Publisher
	Logger    zerolog.Logger

	// ProfileID tags published events.
	ProfileID string
	User      User

	// FeedbackDelay defaults to DefaultFeedbackDelay.
	FeedbackDelay time.Duration
	// IsSessionInvalid classifies assistant errors; defaults to
	// hotelapi.IsSessionInvalid.
	IsSessionInvalid func(error) bool
	// Sleep is used for the feedback delay; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Widget is one chat widget instance.
type Widget struct {
	store     SessionStore
	assistant Assistant
	suggester Suggester
	publisher events.Publisher
	log       zerolog.Logger

	profileID     string
	feedbackDelay time.Duration
	isInvalid     func(error) bool
	sleep         func(time.Duration)

	mu             sync.Mutex
	user           User
	sessionID      string
	transcript     []domain.Message
	epoch          uint64 // bumped whenever the transcript is cleared
	version        uint64 // bumped on every observable change
	composing      int    // in-flight sends and session starts
	open           bool
	loadingHistory bool
	feedbackOpen   bool
	feedbackSent   bool
	subs           map[uint64]chan struct{}
	nextSub        uint64
}

// New builds a Widget and restores the persisted session id, if any. The id
// is not validated here; the first history load or send does that.
func New(ctx context.Context, opts Options) *Widget {
	w := &Widget{
		store:         opts.Store,
		assistant:     opts.Assistant,
		suggester:     opts.Suggester,
		publisher:     opts.Publisher,
		log:           opts.Logger,
		profileID:     opts.ProfileID,
		user:          opts.User,
		feedbackDelay: opts.FeedbackDelay,
		isInvalid:     opts.IsSessionInvalid,
		sleep:         opts.Sleep,
		subs:          make(map[uint64]chan struct{}),
	}
	if w.publisher == nil {
		w.publisher = events.Noop{}
	}
	if w.feedbackDelay <= 0 {
		w.feedbackDelay = DefaultFeedbackDelay
	}
	if w.isInvalid == nil {
		w.isInvalid = hotelapi.IsSessionInvalid
	}
	if w.sleep == nil {
		w.sleep = time.Sleep
	}
	w.sessionID = w.store.Load(ctx)
	return w
}

// SetUser updates the signed-in guest used for new sessions and sends.
func (w *Widget) SetUser(u User) {
	w.mu.Lock()
	w.user = u
	w.mu.Unlock()
}

// SessionID returns the active session id, or "".
func (w *Widget) SessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sessionID
}

// Open marks the widget visible and, when a restored session has no
// transcript yet, loads its history. A failed load drops the session
// silently. At most one history load runs at a time.
func (w *Widget) Open(ctx context.Context) {
	w.mu.Lock()
	w.open = true
	sid := w.sessionID
	load := sid != "" && len(w.transcript) == 0 && !w.loadingHistory
	if load {
		w.loadingHistory = true
	}
	w.changedLocked()
	w.mu.Unlock()

	if load {
		w.loadHistory(ctx, sid)
	}
}

// Close marks the widget hidden. In-flight requests keep running and their
// results are still applied.
func (w *Widget) Close() {
	w.mu.Lock()
	w.open = false
	w.changedLocked()
	w.mu.Unlock()
}

func (w *Widget) loadHistory(ctx context.Context, sid string) {
	recs, err := w.assistant.History(ctx, sid)

	w.mu.Lock()
	w.loadingHistory = false
	if err != nil {
		dropped := w.sessionID == sid
		if dropped {
			w.sessionID = ""
		}
		w.changedLocked()
		w.mu.Unlock()

		if dropped {
			w.log.Info().Err(err).Str("session_id", sid).Msg("history unavailable; dropping session")
			w.clearStore(ctx)
			w.publish(ctx, events.New(events.SessionDropped, w.profileID, sid))
		}
		return
	}
	if w.sessionID == sid && len(w.transcript) == 0 {
		w.transcript = domain.NormalizeAll(recs)
	}
	w.changedLocked()
	w.mu.Unlock()
}

func (w *Widget) appendMessage(m domain.Message) {
	w.mu.Lock()
	w.transcript = append(w.transcript, m)
	w.changedLocked()
	w.mu.Unlock()
}

func (w *Widget) setComposing(delta int) {
	w.mu.Lock()
	w.composing += delta
	w.changedLocked()
	w.mu.Unlock()
}

func (w *Widget) currentUser() User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

func (w *Widget) clearStore(ctx context.Context) {
	if err := w.store.Clear(ctx); err != nil {
		w.log.Warn().Err(err).Msg("session store clear failed")
	}
}

func (w *Widget) publish(ctx context.Context, e events.Event) {
	if err := w.publisher.Publish(ctx, e); err != nil {
		w.log.Warn().Err(err).Str("event", string(e.Kind)).Msg("event publish failed")
	}
}

// Snapshot is a point-in-time view of the widget.
type Snapshot struct {
	SessionID      string           `json:"sessionId,omitempty"`
	Messages       []domain.Message `json:"messages"`
	Offset         int              `json:"offset"` // transcript index of Messages[0]
	Total          int              `json:"total"`
	Epoch          uint64           `json:"epoch"`
	Version        uint64           `json:"version"`
	Open           bool             `json:"open"`
	Composing      bool             `json:"composing"`
	LoadingHistory bool             `json:"loadingHistory"`
	FeedbackOpen   bool             `json:"feedbackOpen"`
	FeedbackSent   bool             `json:"feedbackSent"`
	InputEnabled   bool             `json:"inputEnabled"`
}

// Snapshot returns the widget state with transcript entries from index since
// onward. Out of range values are clamped.
func (w *Widget) Snapshot(since int) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	if since < 0 {
		since = 0
	}
	if since > len(w.transcript) {
		since = len(w.transcript)
	}
	msgs := make([]domain.Message, len(w.transcript)-since)
	copy(msgs, w.transcript[since:])

	return Snapshot{
		SessionID:      w.sessionID,
		Messages:       msgs,
		Offset:         since,
		Total:          len(w.transcript),
		Epoch:          w.epoch,
		Version:        w.version,
		Open:           w.open,
		Composing:      w.composing > 0,
		LoadingHistory: w.loadingHistory,
		FeedbackOpen:   w.feedbackOpen,
		FeedbackSent:   w.feedbackSent,
		InputEnabled:   w.composing == 0 && !w.feedbackOpen,
	}
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce: a slow reader sees at least one signal after the latest
// change, then calls Snapshot. Call cancel to stop receiving.
func (w *Widget) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	w.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
		})
	}
}

// changedLocked bumps the version and signals subscribers. w.mu must be held.
func (w *Widget) changedLocked() {
	w.version++
	for _, ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
