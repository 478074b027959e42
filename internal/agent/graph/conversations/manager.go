package conversations

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// SessionManager loads, extends and persists sessions around one turn.
type SessionManager struct {
	repo        model.SessionRepository
	maxMessages int
	now         func() time.Time
}

func NewSessionManager(repo model.SessionRepository, sess model.SessionConfig) *SessionManager {
	return &SessionManager{
		repo:        repo,
		maxMessages: sess.MaxMessages,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Lock serializes turns of the same session.
func (m *SessionManager) Lock(ctx context.Context, key string) (func(), error) {
	return m.repo.Lock(ctx, key)
}

// Begin loads the session for key and appends the incoming user message.
func (m *SessionManager) Begin(ctx context.Context, key, query string) (*model.Session, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errx.Validation("query must not be empty")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errx.Validation("session key must not be empty")
	}
	s, err := m.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.Append(model.UserMessage(query, m.now()))
	return s, nil
}

// Save compacts the history and writes the session back.
func (m *SessionManager) Save(ctx context.Context, s *model.Session) error {
	s.Compact(m.maxMessages)
	s.UpdatedAt = m.now()
	return m.repo.Put(ctx, s)
}

// ClassifierContext renders history plus the message under analysis.
func ClassifierContext(history []model.Message) string {
	if len(history) == 0 {
		return "<conversation_context>\n</conversation_context>"
	}
	current := history[len(history)-1]
	prior := history[:len(history)-1]

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range prior {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case model.RoleAssistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	b.WriteString("\n<current_message_to_analyze>\n")
	b.WriteString("UserMessage(" + current.Content + ")\n")
	b.WriteString("</current_message_to_analyze>")
	return b.String()
}

// BuildMessages prepends the system prompt to the history as Eino messages.
func BuildMessages(systemPrompt string, history []model.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history)+1)
	out = append(out, schema.SystemMessage(systemPrompt))
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return out
}
