package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/moonpalace/concierge/internal/domain"
	"github.com/moonpalace/concierge/internal/events"
	"github.com/moonpalace/concierge/internal/hotelapi"
)

var (
	errInvalid = &hotelapi.APIError{Status: 404, Message: "Session not found"}
	errServer  = &hotelapi.APIError{Status: 500, Message: "boom"}
)

// memStore records every operation so tests can assert ordering.
type memStore struct {
	mu  sync.Mutex
	val string
	ops []string
}

func (s *memStore) Load(context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val
}

func (s *memStore) Save(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = id
	s.ops = append(s.ops, "save:"+id)
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = ""
	s.ops = append(s.ops, "clear")
	return nil
}

func (s *memStore) value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val
}

func (s *memStore) history() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

type fakeAssistant struct {
	mu sync.Mutex

	ids      []string // returned by StartSession in order
	startErr error
	sendFn   func(ctx context.Context, req hotelapi.ChatRequest) (*hotelapi.ChatReply, error)
	history  []domain.HistoryRecord
	histErr  error
	endErr   error
	fbErr    error
	xferErr  error

	starts    []string // "userID|userName"
	sends     []hotelapi.ChatRequest
	histCalls int
	ended     []string
	feedback  []domain.Feedback
	transfers []string
}

func (a *fakeAssistant) StartSession(_ context.Context, userID, userName string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts = append(a.starts, userID+"|"+userName)
	if a.startErr != nil {
		return "", a.startErr
	}
	if len(a.ids) == 0 {
		return "", errors.New("no more ids")
	}
	id := a.ids[0]
	a.ids = a.ids[1:]
	return id, nil
}

func (a *fakeAssistant) SendMessage(ctx context.Context, req hotelapi.ChatRequest) (*hotelapi.ChatReply, error) {
	a.mu.Lock()
	a.sends = append(a.sends, req)
	fn := a.sendFn
	a.mu.Unlock()
	if fn == nil {
		return &hotelapi.ChatReply{SessionID: req.SessionID, Message: "ok"}, nil
	}
	return fn(ctx, req)
}

func (a *fakeAssistant) History(context.Context, string) ([]domain.HistoryRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histCalls++
	return a.history, a.histErr
}

func (a *fakeAssistant) EndSession(_ context.Context, sid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ended = append(a.ended, sid)
	return a.endErr
}

func (a *fakeAssistant) SubmitFeedback(_ context.Context, fb domain.Feedback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.feedback = append(a.feedback, fb)
	return a.fbErr
}

func (a *fakeAssistant) TransferToHuman(_ context.Context, sid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transfers = append(a.transfers, sid)
	return a.xferErr
}

func (a *fakeAssistant) sendCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sends)
}

type fakeSuggester struct {
	cards []domain.Card
	err   error
}

func (s fakeSuggester) Suggest(context.Context, string) ([]domain.Card, error) {
	return s.cards, s.err
}

type harness struct {
	w      *Widget
	store  *memStore
	api    *fakeAssistant
	events *events.Recorder
	slept  []time.Duration
}

func newHarness(t *testing.T, stored string, api *fakeAssistant, sug Suggester) *harness {
	t.Helper()
	h := &harness{
		store:  &memStore{val: stored},
		api:    api,
		events: &events.Recorder{},
	}
	h.w = New(context.Background(), Options{
		Store:     h.store,
		Assistant: api,
		Suggester: sug,
		Publisher: h.events,
		Logger:    zerolog.Nop(),
		ProfileID: "profile-1",
		Sleep:     func(d time.Duration) { h.slept = append(h.slept, d) },
	})
	return h
}

func (h *harness) transcript() []domain.Message {
	return h.w.Snapshot(0).Messages
}
