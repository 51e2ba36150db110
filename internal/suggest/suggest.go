// Package suggest derives room suggestion cards from the user's own words,
// without involving the assistant service: a fixed keyword table picks at most
// one room category, and the room catalog supplies the cards.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/moonpalace/concierge/internal/domain"
)

// DefaultLimit caps the cards produced for one utterance.
const DefaultLimit = 5

// Card button defaults for locally built suggestions.
const (
	ButtonText = "Xem chi tiết"
	Currency   = "VNĐ"
)

// RoomFinder lists rooms of a category in catalog order.
type RoomFinder interface {
	RoomsByType(ctx context.Context, t domain.RoomType) ([]domain.Room, error)
}

// keywordTable is evaluated top to bottom; the first row with any keyword
// present in the text wins, wherever that keyword occurs in the text.
var keywordTable = []struct {
	words []string
	room  domain.RoomType
}{
	{[]string{"standard"}, domain.RoomStandard},
	{[]string{"superior"}, domain.RoomSuperior},
	{[]string{"deluxe"}, domain.RoomDeluxe},
	{[]string{"suite"}, domain.RoomSuite},
	{[]string{"executive"}, domain.RoomExecutive},
	{[]string{"president", "tổng thống"}, domain.RoomPresidential},
	{[]string{"family", "gia đình"}, domain.RoomFamily},
	{[]string{"honeymoon", "cặp đôi"}, domain.RoomHoneymoon},
}

var lower = cases.Lower(language.Und)

// MatchRoomType returns the room category named in text, if any.
func MatchRoomType(text string) (domain.RoomType, bool) {
	t := lower.String(text)
	for _, row := range keywordTable {
		for _, w := range row.words {
			if strings.Contains(t, w) {
				return row.room, true
			}
		}
	}
	return "", false
}

// Lookup turns user text into suggestion cards.
type Lookup struct {
	Finder RoomFinder
	Limit  int

	printer *message.Printer
}

// New returns a Lookup backed by finder. A non-positive limit uses DefaultLimit.
func New(finder RoomFinder, limit int) *Lookup {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Lookup{
		Finder:  finder,
		Limit:   limit,
		printer: message.NewPrinter(language.English),
	}
}

// Suggest returns up to Limit cards for the room category mentioned in text,
// in catalog order. Text naming no category yields no cards and no catalog call.
func (l *Lookup) Suggest(ctx context.Context, text string) ([]domain.Card, error) {
	rt, ok := MatchRoomType(text)
	if !ok {
		return nil, nil
	}

	ctx, span := otel.Tracer("suggest").Start(ctx, "Suggest",
		trace.WithAttributes(attribute.String("room.type", string(rt))),
	)
	defer span.End()

	rooms, err := l.Finder.RoomsByType(ctx, rt)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rooms of type %s: %w", rt, err)
	}
	if len(rooms) > l.Limit {
		rooms = rooms[:l.Limit]
	}
	cards := make([]domain.Card, 0, len(rooms))
	for _, r := range rooms {
		cards = append(cards, l.Card(r))
	}
	span.SetAttributes(attribute.Int("cards", len(cards)))
	return cards, nil
}

// Card renders one room as a suggestion card linking to its detail page.
func (l *Lookup) Card(r domain.Room) domain.Card {
	p := l.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	view := r.ViewDisplay
	if view == "" {
		view = r.View
	}
	return domain.Card{
		Title:        r.Name,
		Subtitle:     p.Sprintf("%d %s • %dm² • %s", int64(r.PricePerNight), Currency, r.Size, view),
		ImageURL:     r.CoverImage(),
		ButtonText:   ButtonText,
		ButtonLink:   "/room/" + r.ID,
		ButtonAction: domain.ActionNavigate,
	}
}
