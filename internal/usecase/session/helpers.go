package session

import (
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

// renderTranscript lays out the message history as plain text, one block per
// message with a role label.
func renderTranscript(messages []*entity.ChatMessage) string {
	var sb strings.Builder

	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		sb.WriteString(roleLabel(msg.Role))
		sb.WriteString(" (")
		sb.WriteString(msg.CreatedAt.Format("2006-01-02 15:04"))
		sb.WriteString("):\n")
		sb.WriteString(msg.Content)
	}

	return sb.String()
}

func roleLabel(role entity.MessageRole) string {
	switch role {
	case entity.MessageRoleUser:
		return "You"
	case entity.MessageRoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}
