package widget

import (
	"fmt"

	"github.com/moonpalace/concierge/internal/domain"
)

const (
	// SendFailureText is shown when a message cannot be answered.
	SendFailureText = "Xin lỗi, tôi đang gặp sự cố kết nối hoặc phiên chat đã hết hạn. Vui lòng tải lại trang."
	// StartFailureText is shown when a conversation cannot be created.
	StartFailureText = "Xin lỗi, tôi không thể khởi tạo cuộc trò chuyện lúc này. Vui lòng thử lại sau."
	// HandoverText confirms a transfer to hotel staff.
	HandoverText = "Yêu cầu của bạn đã được chuyển tới nhân viên hỗ trợ. Vui lòng chờ trong giây lát."

	guestName = "quý khách"
)

var greetingReplies = []domain.QuickReply{
	{Label: "Đặt phòng", Value: "Tôi muốn đặt phòng"},
	{Label: "Giá phòng", Value: "Giá phòng hiện tại thế nào?"},
	{Label: "Tiện ích", Value: "Khách sạn có những tiện ích gì?"},
}

// Greeting is the welcome message of a fresh session.
func Greeting(name string) domain.Message {
	if name == "" {
		name = guestName
	}
	m := domain.BotText(fmt.Sprintf("Xin chào %s! Tôi là trợ lý ảo của Moon Palace. Tôi có thể giúp gì cho bạn hôm nay?", name))
	m.QuickReplies = append([]domain.QuickReply(nil), greetingReplies...)
	return m
}
