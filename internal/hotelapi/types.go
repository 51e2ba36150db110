package hotelapi

import (
	"encoding/json"

	"github.com/moonpalace/concierge/internal/domain"
)

// envelope wraps every response of the remote API.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

const statusSuccess = "success"

type startData struct {
	SessionID string `json:"sessionId"`
}

// ChatRequest is one user utterance sent to the assistant.
type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// ChatReply is the assistant's answer to a ChatRequest.
type ChatReply struct {
	SessionID         string              `json:"sessionId"`
	Message           string              `json:"message"`
	MessageType       string              `json:"messageType"`
	QuickReplies      []domain.QuickReply `json:"quickReplies"`
	Cards             []domain.Card       `json:"cards"`
	ImageURL          string              `json:"imageUrl"`
	Intent            string              `json:"intentDetected"`
	Confidence        *float64            `json:"confidence"`
	NeedsHumanSupport bool                `json:"needsHumanSupport"`
	Timestamp         string              `json:"timestamp"`
}

// BotMessage converts the reply into a BOT transcript entry carrying the
// remote cards only.
func (r ChatReply) BotMessage() domain.Message {
	return domain.Normalize(domain.HistoryRecord{
		Content:           r.Message,
		Type:              r.MessageType,
		Sender:            string(domain.SenderBot),
		QuickReplies:      r.QuickReplies,
		Cards:             r.Cards,
		ImageURL:          r.ImageURL,
		Intent:            r.Intent,
		Confidence:        r.Confidence,
		NeedsHumanSupport: r.NeedsHumanSupport,
		Timestamp:         r.Timestamp,
	})
}

type historyData struct {
	Messages []domain.HistoryRecord `json:"messages"`
}
