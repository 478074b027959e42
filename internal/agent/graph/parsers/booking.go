package parsers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// BookingExtraction is what the extractor read from the recent conversation.
type BookingExtraction struct {
	Slots   model.Slots
	Cancel  bool
	Confirm bool
}

var bookingFields = map[string]model.SlotName{
	"name":         model.SlotPatientName,
	"phone_number": model.SlotPhone,
	"phone":        model.SlotPhone,
	"service_type": model.SlotServiceType,
	"service":      model.SlotServiceType,
	"doctor":       model.SlotDoctor,
	"date":         model.SlotDate,
	"time":         model.SlotTime,
}

// ParseBookingExtraction decodes the extractor output. Null, blank and
// placeholder values leave the slot unset; numbers are kept as text so phone
// numbers survive.
func ParseBookingExtraction(content string) (BookingExtraction, error) {
	var out BookingExtraction
	obj, err := ExtractObject(content)
	if err != nil {
		return out, err
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return out, fmt.Errorf("%w: %v", errx.ErrMalformedOutput, err)
	}
	for key, v := range raw {
		k := strings.ToLower(strings.TrimSpace(key))
		switch k {
		case "cancel":
			out.Cancel = truthy(v)
			continue
		case "confirm":
			out.Confirm = truthy(v)
			continue
		}
		name, ok := bookingFields[k]
		if !ok {
			continue
		}
		if s, ok := slotText(v); ok {
			out.Slots.Set(name, s)
		}
	}
	return out, nil
}

func slotText(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "-", "unknown":
		return "", false
	}
	return s, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}
