package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestSlots_MergeNeverClears(t *testing.T) {
	var s Slots
	s = s.Merge(Slots{Name: strp("Ana")})
	s = s.Merge(Slots{Name: nil})
	s = s.Merge(Slots{Name: strp("   ")})

	name, ok := s.Get(SlotPatientName)
	assert.True(t, ok)
	assert.Equal(t, "Ana", name)
}

func TestSlots_MergeLastNonNullWins(t *testing.T) {
	s := Slots{}.Merge(Slots{Date: strp("besok"), Time: strp("10:00")})
	s = s.Merge(Slots{Date: strp("Senin"), Phone: strp("08123456")})

	date, _ := s.Get(SlotDate)
	tm, _ := s.Get(SlotTime)
	phone, _ := s.Get(SlotPhone)
	assert.Equal(t, "Senin", date)
	assert.Equal(t, "10:00", tm)
	assert.Equal(t, "08123456", phone)
}

func TestSlots_MergeSequenceIsMonotonic(t *testing.T) {
	steps := []Slots{
		{Name: strp("Budi")},
		{Phone: strp("08123456")},
		{},
		{ServiceType: strp("facial"), Name: nil},
		{Doctor: strp("dr. Sari")},
		{Date: strp("2025-03-01"), Phone: nil},
		{Time: strp("10:00")},
	}
	var s Slots
	filled := 0
	for _, step := range steps {
		s = s.Merge(step)
		now := len(SlotOrder) - len(s.Missing())
		assert.GreaterOrEqual(t, now, filled)
		filled = now
	}
	assert.True(t, s.Complete())
}

func TestSlots_MergeDoesNotAlias(t *testing.T) {
	a := Slots{Name: strp("Ana")}
	b := a.Merge(Slots{})
	*b.Name = "changed"
	assert.Equal(t, "Ana", *a.Name)
}

func TestSlots_MissingOrder(t *testing.T) {
	s := Slots{Phone: strp("0812"), Doctor: strp("dr. Budi")}
	assert.Equal(t, []SlotName{SlotPatientName, SlotServiceType, SlotDate, SlotTime}, s.Missing())
	assert.False(t, s.Complete())
	assert.False(t, s.Empty())
	assert.True(t, Slots{}.Empty())
}

func TestSlots_Summary(t *testing.T) {
	s := Slots{Name: strp("Budi")}
	assert.Equal(t, "name: Budi\nphone: -\nserviceType: -\ndoctor: -\ndate: -\ntime: -", s.Summary())
}
