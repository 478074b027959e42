package model

import (
	"fmt"
	"strings"
)

type SlotName string

const (
	SlotPatientName SlotName = "name"
	SlotPhone       SlotName = "phone"
	SlotServiceType SlotName = "serviceType"
	SlotDoctor      SlotName = "doctor"
	SlotDate        SlotName = "date"
	SlotTime        SlotName = "time"
)

// SlotOrder is the order in which missing slots are asked for.
var SlotOrder = []SlotName{SlotPatientName, SlotPhone, SlotServiceType, SlotDoctor, SlotDate, SlotTime}

// Slots holds booking progress. A nil field is unset.
type Slots struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone_number"`
	ServiceType *string `json:"service_type"`
	Doctor      *string `json:"doctor"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
}

func (s *Slots) ref(name SlotName) **string {
	switch name {
	case SlotPatientName:
		return &s.Name
	case SlotPhone:
		return &s.Phone
	case SlotServiceType:
		return &s.ServiceType
	case SlotDoctor:
		return &s.Doctor
	case SlotDate:
		return &s.Date
	case SlotTime:
		return &s.Time
	}
	panic(fmt.Sprintf("unknown slot %q", name))
}

// Get returns the slot value and whether it is filled.
func (s Slots) Get(name SlotName) (string, bool) {
	p := *s.ref(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set fills a slot; blank values are ignored.
func (s *Slots) Set(name SlotName, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	*s.ref(name) = &v
}

// Merge returns s with every non-empty field of other applied. A nil or blank
// field in other never clears a filled slot.
func (s Slots) Merge(other Slots) Slots {
	out := s.Clone()
	for _, name := range SlotOrder {
		if v, ok := other.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}

func (s Slots) Clone() Slots {
	var out Slots
	for _, name := range SlotOrder {
		if v, ok := s.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}

// Missing lists unset slots in SlotOrder.
func (s Slots) Missing() []SlotName {
	var missing []SlotName
	for _, name := range SlotOrder {
		if _, ok := s.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s Slots) Complete() bool { return len(s.Missing()) == 0 }

// Empty reports whether no slot is filled.
func (s Slots) Empty() bool { return len(s.Missing()) == len(SlotOrder) }

// Summary renders the slots as "name: value" lines, "-" for unset.
func (s Slots) Summary() string {
	var b strings.Builder
	for i, name := range SlotOrder {
		if i > 0 {
			b.WriteString("\n")
		}
		v, ok := s.Get(name)
		if !ok {
			v = "-"
		}
		fmt.Fprintf(&b, "%s: %s", name, v)
	}
	return b.String()
}
