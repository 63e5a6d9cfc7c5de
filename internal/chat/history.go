package chat

import (
	"errors"

	"localcoder/internal/client"
)

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one user request and the assistant's reply.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// History is an ordered list of turns.
type History []Turn

// ToMessages renders history as model messages: the system prompt first,
// then alternating user and assistant messages.
func ToMessages(history History, system string) []client.Message {
	messages := make([]client.Message, 0, 1+2*len(history))
	messages = append(messages, client.Message{Role: RoleSystem, Content: system})
	for _, t := range history {
		messages = append(messages,
			client.Message{Role: RoleUser, Content: t.User},
			client.Message{Role: RoleAssistant, Content: t.Assistant},
		)
	}
	return messages
}

// ErrNoSystemMessage is returned by FromMessages when the first message is
// not a system message.
var ErrNoSystemMessage = errors.New("first message must be a system message")

// FromMessages is the inverse of ToMessages. It returns the system prompt
// and the turns; a trailing unanswered user message is dropped.
func FromMessages(messages []client.Message) (string, History, error) {
	if len(messages) == 0 || messages[0].Role != RoleSystem {
		return "", nil, ErrNoSystemMessage
	}

	var history History
	rest := messages[1:]
	for i := 0; i+1 < len(rest); i += 2 {
		history = append(history, Turn{User: rest[i].Content, Assistant: rest[i+1].Content})
	}
	return messages[0].Content, history, nil
}

// Message is a role/content pair as rendered by the chat UI.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatbotMessages flattens history into the UI's message list.
func ChatbotMessages(history History) []Message {
	out := make([]Message, 0, 2*len(history))
	for _, t := range history {
		out = append(out,
			Message{Role: RoleUser, Content: t.User},
			Message{Role: RoleAssistant, Content: t.Assistant},
		)
	}
	return out
}
