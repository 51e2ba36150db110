package suggest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moonpalace/concierge/internal/domain"
)

type fakeFinder struct {
	rooms map[domain.RoomType][]domain.Room
	err   error
	calls []domain.RoomType
}

func (f *fakeFinder) RoomsByType(_ context.Context, t domain.RoomType) ([]domain.Room, error) {
	f.calls = append(f.calls, t)
	if f.err != nil {
		return nil, f.err
	}
	return f.rooms[t], nil
}

func TestMatchRoomType(t *testing.T) {
	cases := []struct {
		text string
		want domain.RoomType
		ok   bool
	}{
		{"Cho tôi xem phòng Deluxe", domain.RoomDeluxe, true},
		{"STANDARD room please", domain.RoomStandard, true},
		{"Phòng TỔNG THỐNG giá bao nhiêu?", domain.RoomPresidential, true},
		{"presidential suite", domain.RoomSuite, true},
		{"phòng cho gia đình 4 người", domain.RoomFamily, true},
		{"kỳ nghỉ cặp đôi", domain.RoomHoneymoon, true},
		{"family room or a suite?", domain.RoomSuite, true},
		{"executive or standard", domain.RoomStandard, true},
		{"giờ nhận phòng là mấy giờ?", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := MatchRoomType(tc.text)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("MatchRoomType(%q) = %q,%v want %q,%v", tc.text, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestSuggest_NoKeywordSkipsCatalog(t *testing.T) {
	f := &fakeFinder{}
	cards, err := New(f, 0).Suggest(context.Background(), "xin chào")
	if err != nil || cards != nil {
		t.Fatalf("cards=%v err=%v", cards, err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("catalog called %v", f.calls)
	}
}

func TestSuggest_CapsAndKeepsCatalogOrder(t *testing.T) {
	var rooms []domain.Room
	for i := 1; i <= 7; i++ {
		rooms = append(rooms, domain.Room{ID: fmt.Sprint(i), Name: fmt.Sprintf("Suite %d", i)})
	}
	f := &fakeFinder{rooms: map[domain.RoomType][]domain.Room{domain.RoomSuite: rooms}}

	cards, err := New(f, 0).Suggest(context.Background(), "family suite")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(cards) != DefaultLimit {
		t.Fatalf("len = %d, want %d", len(cards), DefaultLimit)
	}
	for i, c := range cards {
		if want := fmt.Sprintf("Suite %d", i+1); c.Title != want {
			t.Fatalf("cards[%d].Title = %q, want %q", i, c.Title, want)
		}
	}
	if diff := cmp.Diff([]domain.RoomType{domain.RoomSuite}, f.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}

func TestSuggest_PropagatesCatalogError(t *testing.T) {
	boom := errors.New("catalog down")
	_, err := New(&fakeFinder{err: boom}, 3).Suggest(context.Background(), "deluxe")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestCard(t *testing.T) {
	l := New(nil, 5)
	got := l.Card(domain.Room{
		ID:            "42",
		Name:          "Deluxe Ocean",
		PricePerNight: 1500000,
		Size:          35,
		View:          "OCEAN",
		ViewDisplay:   "Hướng biển",
		Images:        []string{"a.jpg", "b.jpg"},
	})
	want := domain.Card{
		Title:        "Deluxe Ocean",
		Subtitle:     "1,500,000 VNĐ • 35m² • Hướng biển",
		ImageURL:     "a.jpg",
		ButtonText:   "Xem chi tiết",
		ButtonLink:   "/room/42",
		ButtonAction: domain.ActionNavigate,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("card (-want +got):\n%s", diff)
	}
	if got.Target() != domain.TargetRoute {
		t.Fatalf("target = %v", got.Target())
	}

	bare := (&Lookup{}).Card(domain.Room{ID: "1", Name: "S", PricePerNight: 900, Size: 20, View: "CITY", ThumbnailImage: "t.jpg"})
	if bare.Subtitle != "900 VNĐ • 20m² • CITY" || bare.ImageURL != "t.jpg" {
		t.Fatalf("bare card = %+v", bare)
	}
}
