package entity

type ChatEventType string

// Chat event types, in the order a consumer may observe them within one turn.
// The contract guarantees that a "session" event precedes any
// "answer_fragment" event, and that "complete" or "error" terminates a turn.
const (
	EventConnected      ChatEventType = "connected"
	EventStatus         ChatEventType = "status"
	EventContext        ChatEventType = "context"
	EventSession        ChatEventType = "session"
	EventAnswerFragment ChatEventType = "answer_fragment"
	EventAnswer         ChatEventType = "answer"
	EventComplete       ChatEventType = "complete"
	EventError          ChatEventType = "error"
)

// ChatEvent is one typed message emitted to the transport during a chat turn.
type ChatEvent struct {
	Type    ChatEventType `json:"type"`
	Content any           `json:"content"`
}

func StatusEvent(text string) ChatEvent {
	return ChatEvent{Type: EventStatus, Content: text}
}

func ContextEvent(chunks []ContextChunk) ChatEvent {
	return ChatEvent{Type: EventContext, Content: chunks}
}

func SessionEvent(session *ChatSession) ChatEvent {
	return ChatEvent{Type: EventSession, Content: session}
}

func AnswerFragmentEvent(text string) ChatEvent {
	return ChatEvent{Type: EventAnswerFragment, Content: text}
}

func AnswerEvent(text string) ChatEvent {
	return ChatEvent{Type: EventAnswer, Content: text}
}

func CompleteEvent(sessionID string) ChatEvent {
	return ChatEvent{Type: EventComplete, Content: map[string]string{"session_id": sessionID}}
}

func ErrorEvent(message string) ChatEvent {
	return ChatEvent{Type: EventError, Content: message}
}
