// Package domain defines the conversation model shared by the chat widget,
// the remote hotel API client and the HTTP layer: messages, quick replies,
// suggestion cards, feedback and the room records used to build local
// suggestions.
package domain

import (
	"strings"
	"time"
)

// MessageType is the rendering kind of a transcript entry.
type MessageType string

const (
	TypeText       MessageType = "TEXT"
	TypeImage      MessageType = "IMAGE"
	TypeQuickReply MessageType = "QUICK_REPLY"
	TypeCard       MessageType = "CARD"
	TypeTyping     MessageType = "TYPING"
)

// ParseMessageType maps a wire value onto a known MessageType. Unknown or
// empty values fall back to TypeText.
func ParseMessageType(s string) MessageType {
	switch MessageType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeImage:
		return TypeImage
	case TypeQuickReply:
		return TypeQuickReply
	case TypeCard:
		return TypeCard
	case TypeTyping:
		return TypeTyping
	default:
		return TypeText
	}
}

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser  Sender = "USER"
	SenderBot   Sender = "BOT"
	SenderStaff Sender = "STAFF"
)

// QuickReply is a suggested follow-up the user can send with one tap.
//
// Label is what the button shows; Value is the text actually sent.
type QuickReply struct {
	Label string `json:"text"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// ButtonAction tells the client what a card button does.
const ActionNavigate = "NAVIGATE"

// Card is a suggestion card attached to a bot message. Cards come either from
// the assistant service or from the local room lookup.
type Card struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	ButtonText   string `json:"buttonText,omitempty"`
	ButtonLink   string `json:"buttonLink,omitempty"`
	ButtonAction string `json:"buttonAction,omitempty"`
}

// CardTarget describes where a card button leads.
type CardTarget int

const (
	// TargetNone means the card has no usable link.
	TargetNone CardTarget = iota
	// TargetRoute is an in-app route such as /room/42; the widget closes after navigating.
	TargetRoute
	// TargetExternal is an absolute URL opened in a new tab.
	TargetExternal
)

// Target classifies the card's button link.
func (c Card) Target() CardTarget {
	link := strings.TrimSpace(c.ButtonLink)
	switch {
	case link == "":
		return TargetNone
	case strings.HasPrefix(link, "/"):
		return TargetRoute
	default:
		return TargetExternal
	}
}

// Message is one entry of the widget transcript.
type Message struct {
	Type         MessageType  `json:"type"`
	Sender       Sender       `json:"sender"`
	Content      string       `json:"content,omitempty"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
	Cards        []Card       `json:"cards,omitempty"`

	// Optional metadata carried through from the assistant service.
	ImageURL          string     `json:"imageUrl,omitempty"`
	Intent            string     `json:"intentDetected,omitempty"`
	Confidence        *float64   `json:"confidence,omitempty"`
	NeedsHumanSupport bool       `json:"needsHumanSupport,omitempty"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
}

// UserText builds the optimistic USER entry appended before a send resolves.
func UserText(text string) Message {
	return Message{Type: TypeText, Sender: SenderUser, Content: text}
}

// BotText builds a plain BOT text entry.
func BotText(text string) Message {
	return Message{Type: TypeText, Sender: SenderBot, Content: text}
}

// Feedback is the satisfaction survey submitted before a session is torn down.
type Feedback struct {
	SessionID  string `json:"sessionId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"feedback"`
	WasHelpful bool   `json:"wasHelpful"`
}

// NewFeedback derives WasHelpful from the rating (4 and 5 count as helpful).
func NewFeedback(sessionID string, rating int, comment string) Feedback {
	return Feedback{
		SessionID:  sessionID,
		Rating:     rating,
		Comment:    comment,
		WasHelpful: rating >= 4,
	}
}
