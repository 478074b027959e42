package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

func TestGuard_Accepts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "adds limit",
			in:   "SELECT name, price FROM treatments WHERE name ILIKE '%facial%'",
			want: "SELECT * FROM (SELECT name, price FROM treatments WHERE name ILIKE '%facial%') AS lookup LIMIT 20",
		},
		{
			name: "caps oversized limit",
			in:   "SELECT name, phone_number, email FROM patients LIMIT 100000",
			want: "SELECT * FROM (SELECT name, phone_number, email FROM patients LIMIT 100000) AS lookup LIMIT 20",
		},
		{
			name: "limit at the cap is kept",
			in:   "SELECT name FROM doctors LIMIT 20",
			want: "SELECT name FROM doctors LIMIT 20",
		},
		{
			name: "strips fence and semicolon",
			in:   "```sql\nSELECT * FROM doctors LIMIT 5;\n```",
			want: "SELECT * FROM doctors LIMIT 5",
		},
		{
			name: "join",
			in:   "SELECT d.name, s.day_of_week FROM doctors d JOIN doctor_schedules s ON s.doctor_id = d.id LIMIT 10",
			want: "SELECT d.name, s.day_of_week FROM doctors d JOIN doctor_schedules s ON s.doctor_id = d.id LIMIT 10",
		},
		{
			name: "cte",
			in:   "WITH budi AS (SELECT id FROM doctors WHERE name ILIKE '%budi%') SELECT * FROM doctor_schedules JOIN budi ON budi.id = doctor_schedules.doctor_id LIMIT 3",
			want: "WITH budi AS (SELECT id FROM doctors WHERE name ILIKE '%budi%') SELECT * FROM doctor_schedules JOIN budi ON budi.id = doctor_schedules.doctor_id LIMIT 3",
		},
		{
			name: "extract from column",
			in:   "SELECT EXTRACT(DOW FROM appointment_date) AS dow, status FROM appointments LIMIT 1",
			want: "SELECT EXTRACT(DOW FROM appointment_date) AS dow, status FROM appointments LIMIT 1",
		},
		{
			name: "schema qualified",
			in:   "select created_at from public.patients limit 2",
			want: "select created_at from public.patients limit 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Guard(tt.in, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuard_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"empty":           "  ",
		"delete":          "DELETE FROM patients",
		"stacked":         "SELECT * FROM doctors; DROP TABLE doctors",
		"update in cte":   "WITH x AS (UPDATE appointments SET status = 'done' RETURNING id) SELECT * FROM x",
		"foreign table":   "SELECT * FROM pg_user",
		"comment":         "SELECT * FROM doctors -- hi",
		"not a statement": "Maaf, saya tidak tahu",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Guard(in, 10)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errx.ErrValidation))
		})
	}
}
