package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
)

func TestIsQuestion(t *testing.T) {
	cases := map[string]bool{
		"Berapa harga facial?":        true,
		"berapa harga facial":         true,
		"Kapan dokter Sari praktek":   true,
		"Di mana lokasi klinik":       true,
		"What are your opening hours": true,
		"Budi":                        false,
		"08123456":                    false,
		"besok jam 10 pagi":           false,
		"Saya mau booking facial":     false,
		"":                            false,
	}
	for text, want := range cases {
		assert.Equal(t, want, IsQuestion(text), text)
	}
}

func TestIsShortAnswer(t *testing.T) {
	cases := map[string]bool{
		"Budi":                 true,
		"08123456":             true,
		"Ya, betul":            true,
		"dr. Sari saja":        true,
		"Berapa harga facial?": false,
		"":                     false,
		"saya ingin datang pada hari sabtu pagi sekitar jam sepuluh bersama teman saya": false,
	}
	for text, want := range cases {
		assert.Equal(t, want, IsShortAnswer(text), text)
	}
}

func TestInterruptionTarget(t *testing.T) {
	to, ok := InterruptionTarget("Berapa harga facial?")
	assert.True(t, ok)
	assert.Equal(t, model.HandlerInquiry, to)

	to, ok = InterruptionTarget("Kapan jadwal dokter Sari?")
	assert.True(t, ok)
	assert.Equal(t, model.HandlerLookup, to)

	_, ok = InterruptionTarget("Boleh jam 3?")
	assert.False(t, ok)

	_, ok = InterruptionTarget("harga facial")
	assert.False(t, ok)
}
