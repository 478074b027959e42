package parsers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

func TestIsEmptyGeneration(t *testing.T) {
	for _, c := range []string{"", "  ", "{}", "[]", "No generation", "no generation chunks", "<think>hmm</think>"} {
		assert.True(t, IsEmptyGeneration(c), c)
	}
	for _, c := range []string{"Halo!", `{"a":1}`, "SELECT 1"} {
		assert.False(t, IsEmptyGeneration(c), c)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "SELECT 1", Clean("```sql\nSELECT 1\n```"))
	assert.Equal(t, `{"a":1}`, Clean("<think>reasoning</think>\n```json\n{\"a\":1}\n```"))
}

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification("```json\n{\"next_step\": \"Booking\", \"actions\": [\"booking\", \"inquiry\", \"bogus\", \"booking\"], \"reason\": \"wants to book\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, model.HandlerBooking, c.Next)
	assert.Equal(t, []model.HandlerID{model.HandlerBooking, model.HandlerInquiry}, c.Actions)
	assert.Equal(t, "wants to book", c.Reason)

	c, err = ParseClassification(`{"next_step": "FINISH"}`)
	require.NoError(t, err)
	assert.Equal(t, model.Terminate, c.Next)

	c, err = ParseClassification("database")
	require.NoError(t, err)
	assert.Equal(t, model.HandlerLookup, c.Next)
}

func TestParseClassificationErrors(t *testing.T) {
	_, err := ParseClassification("")
	assert.ErrorIs(t, err, errx.ErrEmptyGeneration)

	_, err = ParseClassification(`{"next_step": "pharmacy"}`)
	assert.ErrorIs(t, err, errx.ErrMalformedOutput)

	_, err = ParseClassification("I think the user wants something")
	assert.ErrorIs(t, err, errx.ErrMalformedOutput)

	_, err = ParseClassification(`{"next_step": `)
	assert.ErrorIs(t, err, errx.ErrMalformedOutput)
}

func TestParseBookingExtraction(t *testing.T) {
	out, err := ParseBookingExtraction(`Here you go: {"name": "Budi", "phone_number": 8123456, "service_type": " ", "doctor": null, "date": "besok", "time": "N/A", "cancel": false, "confirm": "true"}`)
	require.NoError(t, err)

	name, ok := out.Slots.Get(model.SlotPatientName)
	assert.True(t, ok)
	assert.Equal(t, "Budi", name)
	phone, _ := out.Slots.Get(model.SlotPhone)
	assert.Equal(t, "8123456", phone)
	date, _ := out.Slots.Get(model.SlotDate)
	assert.Equal(t, "besok", date)

	for _, n := range []model.SlotName{model.SlotServiceType, model.SlotDoctor, model.SlotTime} {
		_, ok := out.Slots.Get(n)
		assert.False(t, ok, n)
	}
	assert.False(t, out.Cancel)
	assert.True(t, out.Confirm)
}

func TestParseBookingExtractionEmpty(t *testing.T) {
	_, err := ParseBookingExtraction("{}")
	assert.ErrorIs(t, err, errx.ErrEmptyGeneration)

	_, err = ParseBookingExtraction("no idea")
	assert.ErrorIs(t, err, errx.ErrMalformedOutput)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "ab", truncate("ab", 5))
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "aé", truncate("aéb", 3))

	long := `{"ab":"` + strings.Repeat("é", maxContentLen) + `"}`
	cut := truncate(long, maxContentLen)
	assert.True(t, utf8.ValidString(cut))
	assert.Len(t, cut, maxContentLen-1)

	_, err := ExtractObject(long)
	require.ErrorIs(t, err, errx.ErrMalformedOutput)
}
