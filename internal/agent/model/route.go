package model

import "strings"

// HandlerID names one of the conversation handlers the supervisor can dispatch to.
type HandlerID string

const (
	HandlerInquiry   HandlerID = "inquiry"
	HandlerLookup    HandlerID = "database"
	HandlerBooking   HandlerID = "booking"
	HandlerSmallTalk HandlerID = "general"

	// Terminate ends the turn and waits for the next user message.
	Terminate HandlerID = "TERMINATE"
)

// Handlers lists the dispatchable handlers in prompt order.
var Handlers = []HandlerID{HandlerInquiry, HandlerLookup, HandlerBooking, HandlerSmallTalk}

func (h HandlerID) String() string { return string(h) }

// IsHandler reports whether h is one of the dispatchable handlers.
func (h HandlerID) IsHandler() bool {
	switch h {
	case HandlerInquiry, HandlerLookup, HandlerBooking, HandlerSmallTalk:
		return true
	}
	return false
}

// IsResumable reports whether h may own the conversation across turns.
func (h HandlerID) IsResumable() bool {
	return h == HandlerBooking
}

var handlerAliases = map[string]HandlerID{
	"inquiry":           HandlerInquiry,
	"vectorstore":       HandlerInquiry,
	"faq":               HandlerInquiry,
	"rag":               HandlerInquiry,
	"database":          HandlerLookup,
	"sql":               HandlerLookup,
	"lookup":            HandlerLookup,
	"structured_lookup": HandlerLookup,
	"booking":           HandlerBooking,
	"general":           HandlerSmallTalk,
	"smalltalk":         HandlerSmallTalk,
	"small_talk":        HandlerSmallTalk,
	"chitchat":          HandlerSmallTalk,
	"finish":            Terminate,
	"terminate":         Terminate,
	"end":               Terminate,
}

// ParseHandlerID maps a free-text classifier label onto the closed handler set.
// The second return value is false when the label is not recognised.
func ParseHandlerID(label string) (HandlerID, bool) {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(label), `"'.`))
	key = strings.ReplaceAll(key, "-", "_")
	h, ok := handlerAliases[key]
	return h, ok
}

// RouteDecision is the outcome of one supervisor iteration.
type RouteDecision struct {
	Target HandlerID
	Reason string
}

// Step is passed between graph nodes after each supervisor or handler run.
type Step struct {
	Target HandlerID
	Resume bool
}
