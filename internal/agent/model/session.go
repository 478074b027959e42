package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Handler HandlerID `json:"handler,omitempty"`
	At      time.Time `json:"at"`
}

func UserMessage(content string, at time.Time) Message {
	return Message{Role: RoleUser, Content: content, At: at}
}

func AssistantMessage(h HandlerID, content string, at time.Time) Message {
	return Message{Role: RoleAssistant, Content: content, Handler: h, At: at}
}

// Session is the persisted per-conversation state addressed by Key.
type Session struct {
	Key                  string    `json:"key"`
	Messages             []Message `json:"messages"`
	ActiveFlow           HandlerID `json:"active_flow,omitempty"`
	Slots                Slots     `json:"slots"`
	AwaitingConfirmation bool      `json:"awaiting_confirmation,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func NewSession(key string, now time.Time) *Session {
	return &Session{Key: key, Messages: []Message{}, CreatedAt: now, UpdatedAt: now}
}

func (s *Session) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// LastMessage returns the most recent message of any role.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastUserMessage returns the most recent user message.
func (s *Session) LastUserMessage() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Recent returns a copy of the last n messages (all when n <= 0).
func (s *Session) Recent(n int) []Message {
	src := s.Messages
	if n > 0 && len(src) > n {
		src = src[len(src)-n:]
	}
	out := make([]Message, len(src))
	copy(out, src)
	return out
}

// Compact drops the oldest messages so that at most max remain.
func (s *Session) Compact(max int) {
	if max <= 0 || len(s.Messages) <= max {
		return
	}
	s.Messages = append([]Message(nil), s.Messages[len(s.Messages)-max:]...)
}

// Clone returns a deep copy safe to hand to a handler.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = s.Recent(0)
	c.Slots = s.Slots.Clone()
	return &c
}

// Patch is the state change a handler proposes. Nil fields are left untouched.
type Patch struct {
	// ActiveFlow set to a pointer to "" clears the flow.
	ActiveFlow           *HandlerID
	Slots                *Slots
	ResetSlots           bool
	AwaitingConfirmation *bool
}

// SetFlow and ClearFlow build ActiveFlow patches.
func SetFlow(h HandlerID) *HandlerID { return &h }
func ClearFlow() *HandlerID          { var h HandlerID; return &h }

// Apply merges p into the session. Slots are merged monotonically and an
// active flow is only accepted for resumable handlers.
func (s *Session) Apply(p Patch) {
	if p.ResetSlots {
		s.Slots = Slots{}
	}
	if p.Slots != nil {
		s.Slots = s.Slots.Merge(*p.Slots)
	}
	if p.ActiveFlow != nil {
		if *p.ActiveFlow == "" || p.ActiveFlow.IsResumable() {
			s.ActiveFlow = *p.ActiveFlow
		}
	}
	if p.AwaitingConfirmation != nil {
		s.AwaitingConfirmation = *p.AwaitingConfirmation
	}
}

// Transcript renders messages as "role: content" lines for prompts.
func Transcript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
