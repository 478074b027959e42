package lookup

import (
	"fmt"
	"strings"
)

// Table describes one table of the clinic database exposed to lookups.
type Table struct {
	Name     string
	Purpose  string
	Columns  []string
	Keywords []string
}

// Tables is the fixed read-only schema available to structured lookups.
var Tables = []Table{
	{
		Name:     "doctors",
		Purpose:  "doctors working at the clinic",
		Columns:  []string{"id", "name", "specialization", "phone", "is_active"},
		Keywords: []string{"dokter", "doctor", "physician", "dr."},
	},
	{
		Name:     "doctor_schedules",
		Purpose:  "weekly practice hours per doctor",
		Columns:  []string{"id", "doctor_id", "day_of_week", "start_time", "end_time"},
		Keywords: []string{"jadwal", "availability", "jam praktek", "hari apa", "schedule", "praktek"},
	},
	{
		Name:     "treatments",
		Purpose:  "treatments offered with price in rupiah and duration",
		Columns:  []string{"id", "name", "category", "description", "price", "duration_minutes"},
		Keywords: []string{"harga", "biaya", "facial", "laser", "treatment", "perawatan", "price"},
	},
	{
		Name:     "appointments",
		Purpose:  "booked appointments and their status",
		Columns:  []string{"id", "patient_id", "doctor_id", "treatment_id", "appointment_date", "appointment_time", "status"},
		Keywords: []string{"booking", "janji temu", "status", "appointment"},
	},
	{
		Name:     "patients",
		Purpose:  "registered patients",
		Columns:  []string{"id", "name", "phone_number", "email", "created_at"},
		Keywords: []string{"pasien", "patient", "user data"},
	},
}

// TableNames returns the names of tables, in schema order.
func TableNames(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// SelectTables maps a question onto the tables whose keywords it mentions.
// When nothing matches, every table is returned and the query writer decides.
func SelectTables(question string) []Table {
	q := strings.ToLower(question)
	var out []Table
	for _, t := range Tables {
		for _, kw := range t.Keywords {
			if strings.Contains(q, kw) {
				out = append(out, t)
				break
			}
		}
	}
	if len(out) == 0 {
		return Tables
	}
	return out
}

// Describe renders tables as "name(col, ...) -- purpose" lines for prompts.
func Describe(tables []Table) string {
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s(%s) -- %s", t.Name, strings.Join(t.Columns, ", "), t.Purpose)
	}
	return b.String()
}
