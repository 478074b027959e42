// Package agenttest provides scripted collaborators for agent tests.
package agenttest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ReplyFunc produces a completion from the system prompt and the last user message.
type ReplyFunc func(system, lastUser string) (string, error)

type rule struct {
	marker string
	reply  ReplyFunc
}

// ChatModel is a scripted einomodel.BaseChatModel. Each rule matches when its
// marker occurs in the system prompt; the first match answers.
type ChatModel struct {
	mu    sync.Mutex
	rules []rule
	calls map[string]int
	Usage *schema.TokenUsage
}

var _ einomodel.BaseChatModel = (*ChatModel)(nil)

func NewChatModel() *ChatModel {
	return &ChatModel{calls: map[string]int{}}
}

// On registers fn for system prompts containing marker.
func (c *ChatModel) On(marker string, fn ReplyFunc) *ChatModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule{marker: marker, reply: fn})
	return c
}

// Reply registers a fixed completion for marker.
func (c *ChatModel) Reply(marker, content string) *ChatModel {
	return c.On(marker, func(string, string) (string, error) { return content, nil })
}

// Fail registers an error for marker.
func (c *ChatModel) Fail(marker string, err error) *ChatModel {
	return c.On(marker, func(string, string) (string, error) { return "", err })
}

// Calls returns how often the rule for marker answered.
func (c *ChatModel) Calls(marker string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[marker]
}

func (c *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	var system, lastUser string
	for _, m := range input {
		switch m.Role {
		case schema.System:
			if system == "" {
				system = m.Content
			}
		case schema.User:
			lastUser = m.Content
		}
	}

	c.mu.Lock()
	var match *rule
	for i := range c.rules {
		if strings.Contains(system, c.rules[i].marker) {
			match = &c.rules[i]
			c.calls[match.marker]++
			break
		}
	}
	c.mu.Unlock()

	if match == nil {
		return nil, fmt.Errorf("agenttest: no rule for prompt %.60q", system)
	}
	content, err := match.reply(system, lastUser)
	if err != nil {
		return nil, err
	}
	out := schema.AssistantMessage(content, nil)
	if c.Usage != nil {
		out.ResponseMeta = &schema.ResponseMeta{Usage: c.Usage}
	}
	return out, nil
}

func (c *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := c.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

// Prompt markers: stable phrases from the system templates.
const (
	MarkerSupervisor     = "You are the Supervisor"
	MarkerSmallTalk      = "friendly virtual assistant"
	MarkerInquiry        = "KNOWLEDGE BASE EXCERPTS"
	MarkerBookingExtract = "Booking Details Extractor"
	MarkerBookingReply   = "Clinic Receptionist"
	MarkerLookupSQL      = "PostgreSQL Data Analyst"
	MarkerLookupSummary  = "QUERY RESULT"
)
