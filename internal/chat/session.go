package chat

import (
	"context"
	"strings"
	"sync"
)

// SystemPrompt opens every Session.
const SystemPrompt = "You are a helpful AI assistant for SlideBoard, a whiteboard presentation app for tutoring. " +
	"Keep your answers concise and helpful. If asked about math, science, or educational topics, provide clear explanations."

// Session is one assistant conversation. A failed turn leaves the history
// as it was before the question.
type Session struct {
	client *Client

	mu      sync.Mutex
	history []Message
}

// NewSession starts an empty conversation on client.
func NewSession(client *Client) *Session {
	return &Session{client: client}
}

// Send asks content, streaming the reply through onChunk. Blank content is
// ignored and returns "".
func (s *Session) Send(ctx context.Context, content string, onChunk func(string)) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]Message, 0, len(s.history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: SystemPrompt})
	msgs = append(msgs, s.history...)
	msgs = append(msgs, Message{Role: RoleUser, Content: content})

	reply, err := s.client.Stream(ctx, msgs, onChunk)
	if err != nil {
		return "", err
	}
	s.history = append(s.history,
		Message{Role: RoleUser, Content: content},
		Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// History returns a copy of the user and assistant turns.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Clear forgets the conversation.
func (s *Session) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
