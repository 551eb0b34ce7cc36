package conversation

import (
	"encoding/json"
	"fmt"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one entry in the transcript. A pending message has no content
// and stands in for an answer that has not arrived yet.
type Message struct {
	Role    Role       `json:"role"`
	Content string     `json:"content,omitempty"`
	Sources []Citation `json:"sources,omitempty"`
	Pending bool       `json:"pending,omitempty"`
}

// NewUserMessage creates a message authored by the user
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a resolved answer with its citations
func NewAssistantMessage(content string, sources []Citation) Message {
	return Message{Role: RoleAssistant, Content: content, Sources: sources}
}

// NewPendingMessage creates the placeholder shown while a request is outstanding
func NewPendingMessage() Message {
	return Message{Role: RoleAssistant, Pending: true}
}

// IsUser reports whether the user wrote m
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant reports whether m came from the answering service
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// UnmarshalJSON also accepts the "typing" flag written by older clients for
// the pending placeholder.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var aux struct {
		plain
		Typing bool `json:"typing"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Message(aux.plain)
	if aux.Typing {
		m.Pending = true
	}
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	return nil
}

func (m Message) clone() Message {
	if m.Sources != nil {
		m.Sources = append([]Citation(nil), m.Sources...)
	}
	return m
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}
