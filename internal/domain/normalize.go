package domain

import (
	"strings"
	"time"
)

// HistoryRecord is a conversation turn as the assistant service returns it
// from the history endpoint. Depending on which component wrote the turn,
// the text lives in content, text or message, and the author in sender or role.
type HistoryRecord struct {
	Content           string       `json:"content"`
	Text              string       `json:"text"`
	Message           string       `json:"message"`
	Type              string       `json:"type"`
	Sender            string       `json:"sender"`
	Role              string       `json:"role"`
	QuickReplies      []QuickReply `json:"quickReplies"`
	Cards             []Card       `json:"cards"`
	ImageURL          string       `json:"imageUrl"`
	Intent            string       `json:"intentDetected"`
	Confidence        *float64     `json:"confidence"`
	NeedsHumanSupport bool         `json:"needsHumanSupport"`
	Timestamp         string       `json:"timestamp"`
}

// Normalize converts a history record into a transcript Message.
//
// Field precedence:
//
//	content: content, then text, then message
//	type:    type when it names a known kind, else TEXT
//	sender:  sender when it names a known author, else role "user" -> USER, anything else -> BOT
func Normalize(r HistoryRecord) Message {
	return Message{
		Type:              ParseMessageType(r.Type),
		Sender:            resolveSender(r.Sender, r.Role),
		Content:           firstNonBlank(r.Content, r.Text, r.Message),
		QuickReplies:      r.QuickReplies,
		Cards:             r.Cards,
		ImageURL:          r.ImageURL,
		Intent:            r.Intent,
		Confidence:        r.Confidence,
		NeedsHumanSupport: r.NeedsHumanSupport,
		Timestamp:         parseTimestamp(r.Timestamp),
	}
}

// NormalizeAll applies Normalize to every record, preserving order.
func NormalizeAll(records []HistoryRecord) []Message {
	out := make([]Message, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}

func resolveSender(sender, role string) Sender {
	switch Sender(strings.ToUpper(strings.TrimSpace(sender))) {
	case SenderUser:
		return SenderUser
	case SenderBot:
		return SenderBot
	case SenderStaff:
		return SenderStaff
	}
	if strings.EqualFold(strings.TrimSpace(role), "user") {
		return SenderUser
	}
	return SenderBot
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// The server emits zone-less local date-times; RFC 3339 is accepted too.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}
