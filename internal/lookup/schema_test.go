package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectTables(t *testing.T) {
	tests := []struct {
		question string
		want     []string
	}{
		{"Siapa saja dokter di klinik ini?", []string{"doctors"}},
		{"Jadwal dokter Budi hari apa saja?", []string{"doctors", "doctor_schedules"}},
		{"Berapa biaya laser CO2?", []string{"treatments"}},
		{"Status janji temu saya bagaimana?", []string{"appointments"}},
		{"Berapa jumlah pasien bulan ini?", []string{"patients"}},
		{"Halo", []string{"doctors", "doctor_schedules", "treatments", "appointments", "patients"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableNames(SelectTables(tt.question)), tt.question)
	}
}

func TestDescribe(t *testing.T) {
	out := Describe(SelectTables("harga facial"))
	assert.Equal(t, "treatments(id, name, category, description, price, duration_minutes) -- treatments offered with price in rupiah and duration", out)
}

func TestRows_Render(t *testing.T) {
	rows := Rows{
		Columns: []string{"name", "day_of_week", "start_time", "updated"},
		Values: [][]any{
			{"dr. Sari", "Senin", nil, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
			{"dr. Budi", []byte("Selasa"), "09:00", time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)},
		},
	}
	assert.Equal(t,
		"name: dr. Sari; day_of_week: Senin; start_time: -; updated: 2025-03-01\n"+
			"name: dr. Budi; day_of_week: Selasa; start_time: 09:00; updated: 2025-03-01 14:30",
		rows.Render())
	assert.Equal(t, "(no rows)", Rows{}.Render())
}
