package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/moonpalace/concierge/internal/domain"
)

var (
	guestStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	contentStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	replyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			PaddingLeft(2)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginLeft(2)

	cardTitleStyle = lipgloss.NewStyle().Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func renderMessage(m domain.Message) string {
	var b strings.Builder
	switch m.Sender {
	case domain.SenderUser:
		b.WriteString(guestStyle.Render("Bạn"))
	case domain.SenderStaff:
		b.WriteString(botStyle.Render("Nhân viên"))
	default:
		b.WriteString(botStyle.Render("Moon Palace"))
	}
	b.WriteByte('\n')
	if m.Content != "" {
		b.WriteString(contentStyle.Render(m.Content))
		b.WriteByte('\n')
	}
	if m.ImageURL != "" {
		b.WriteString(replyStyle.Render("[ảnh] " + m.ImageURL))
		b.WriteByte('\n')
	}
	for _, c := range m.Cards {
		b.WriteString(renderCard(c))
		b.WriteByte('\n')
	}
	if len(m.QuickReplies) > 0 {
		labels := make([]string, len(m.QuickReplies))
		for i, q := range m.QuickReplies {
			labels[i] = fmt.Sprintf("[%d] %s", i+1, q.Label)
		}
		b.WriteString(replyStyle.Render(strings.Join(labels, "  ")))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderCard(c domain.Card) string {
	lines := []string{cardTitleStyle.Render(c.Title)}
	if c.Subtitle != "" {
		lines = append(lines, c.Subtitle)
	}
	switch c.Target() {
	case domain.TargetRoute:
		lines = append(lines, fmt.Sprintf("%s → %s", c.ButtonText, c.ButtonLink))
	case domain.TargetExternal:
		lines = append(lines, fmt.Sprintf("%s ↗ %s", c.ButtonText, c.ButtonLink))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderNotice(s string) string {
	return noticeStyle.Render(s)
}
