package main

import (
	"strings"
	"testing"

	"github.com/moonpalace/concierge/internal/domain"
)

func TestRenderMessage(t *testing.T) {
	m := domain.Message{
		Type:    domain.TypeCard,
		Sender:  domain.SenderBot,
		Content: "Gợi ý cho bạn",
		Cards: []domain.Card{
			{Title: "Deluxe", Subtitle: "1,200,000 VNĐ", ButtonText: "Xem chi tiết", ButtonLink: "/room/7"},
			{Title: "Spa", ButtonText: "Đặt lịch", ButtonLink: "https://spa.example/book"},
			{Title: "No link"},
		},
		QuickReplies: []domain.QuickReply{{Label: "Đặt phòng", Value: "Tôi muốn đặt phòng"}},
	}
	out := renderMessage(m)
	for _, want := range []string{"Moon Palace", "Gợi ý cho bạn", "Deluxe", "→ /room/7", "↗ https://spa.example/book", "No link", "[1] Đặt phòng"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Tôi muốn đặt phòng") {
		t.Fatalf("quick reply values should not be rendered:\n%s", out)
	}

	user := renderMessage(domain.UserText("chào"))
	if !strings.Contains(user, "Bạn") || !strings.Contains(user, "chào") {
		t.Fatalf("user message: %q", user)
	}
}
