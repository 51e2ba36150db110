package widget

import (
	"context"

	"github.com/moonpalace/concierge/internal/domain"
	"github.com/moonpalace/concierge/internal/hotelapi"
)

// SessionStore persists the active session id across widget instances.
// Load reports "no session" as "" and never fails.
type SessionStore interface {
	Load(ctx context.Context) string
	Save(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Assistant is the remote conversational service. *hotelapi.Client
// satisfies it.
type Assistant interface {
	StartSession(ctx context.Context, userID, userName string) (string, error)
	SendMessage(ctx context.Context, req hotelapi.ChatRequest) (*hotelapi.ChatReply, error)
	History(ctx context.Context, sessionID string) ([]domain.HistoryRecord, error)
	EndSession(ctx context.Context, sessionID string) error
	SubmitFeedback(ctx context.Context, fb domain.Feedback) error
	TransferToHuman(ctx context.Context, sessionID string) error
}

// Suggester derives local suggestion cards from user text.
// *suggest.Lookup satisfies it.
type Suggester interface {
	Suggest(ctx context.Context, text string) ([]domain.Card, error)
}

var _ Assistant = (*hotelapi.Client)(nil)
