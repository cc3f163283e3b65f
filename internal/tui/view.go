package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/minimalist-ai/backend/internal/model/chat"
)

const (
	headerHeight = 2
	footerHeight = 4
	timeLayout   = "15:04"
)

var styles = struct {
	header    lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	timestamp lipgloss.Style
	pending   lipgloss.Style
	help      lipgloss.Style
	empty     lipgloss.Style
}{
	header:    lipgloss.NewStyle().Bold(true).Padding(0, 1),
	user:      lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("63")).Padding(0, 1),
	assistant: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
	timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	empty:     lipgloss.NewStyle().Align(lipgloss.Center),
}

// renderConversation lays out messages: user turns right aligned, assistant turns left.
func renderConversation(state chat.State, width int) string {
	if len(state.Messages) == 0 {
		greeting := "How can I assist you today?\n\n" +
			"I'm your AI assistant, designed to help with information, creative ideas, and conversations."
		return styles.empty.Width(width).Render(greeting)
	}

	bubbleWidth := width * 3 / 4
	if bubbleWidth < 10 {
		bubbleWidth = width
	}

	blocks := make([]string, 0, len(state.Messages))
	for _, msg := range state.Messages {
		blocks = append(blocks, renderMessage(msg, width, bubbleWidth))
	}
	return strings.Join(blocks, "\n")
}

func renderMessage(msg chat.Message, width, bubbleWidth int) string {
	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = styles.timestamp.Render(msg.CreatedAt.Local().Format(timeLayout))
	}

	// width includes the horizontal padding of both bubble styles
	w := lipgloss.Width(msg.Content) + 2
	if w > bubbleWidth {
		w = bubbleWidth
	}

	if msg.Sender == chat.SenderUser {
		bubble := styles.user.Width(w).Render(msg.Content)
		block := lipgloss.JoinVertical(lipgloss.Right, bubble, stamp)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	bubble := styles.assistant.Width(w).Render(msg.Content)
	return lipgloss.JoinVertical(lipgloss.Left, bubble, stamp)
}
