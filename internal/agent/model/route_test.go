package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHandlerID(t *testing.T) {
	tests := []struct {
		label string
		want  HandlerID
		ok    bool
	}{
		{"inquiry", HandlerInquiry, true},
		{" Database ", HandlerLookup, true},
		{"sql", HandlerLookup, true},
		{"booking", HandlerBooking, true},
		{"general", HandlerSmallTalk, true},
		{"small-talk", HandlerSmallTalk, true},
		{"FINISH", Terminate, true},
		{`"booking".`, HandlerBooking, true},
		{"refund", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseHandlerID(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func TestHandlerID_Capabilities(t *testing.T) {
	for _, h := range Handlers {
		assert.True(t, h.IsHandler())
	}
	assert.False(t, Terminate.IsHandler())
	assert.True(t, HandlerBooking.IsResumable())
	assert.False(t, HandlerInquiry.IsResumable())
}

func TestAppState_Undispatched(t *testing.T) {
	s := &AppState{Requested: []HandlerID{HandlerBooking, HandlerInquiry}}
	next, ok := s.Undispatched()
	assert.True(t, ok)
	assert.Equal(t, HandlerBooking, next)

	s.Dispatched = []HandlerID{HandlerBooking}
	next, ok = s.Undispatched()
	assert.True(t, ok)
	assert.Equal(t, HandlerInquiry, next)

	s.Dispatched = append(s.Dispatched, HandlerInquiry)
	_, ok = s.Undispatched()
	assert.False(t, ok)
}
