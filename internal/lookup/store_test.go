package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowsRender(t *testing.T) {
	assert.Equal(t, "(no rows)", Rows{Columns: []string{"name"}}.Render())

	rows := Rows{
		Columns: []string{"name", "price"},
		Values: [][]any{
			{"Facial acne", int64(100000)},
			{[]byte("Laser CO2"), nil, "extra"},
		},
	}
	assert.Equal(t, "name: Facial acne; price: 100000\nname: Laser CO2; price: -; col2: extra", rows.Render())
}

func TestRenderValueTimes(t *testing.T) {
	day := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-10-12", renderValue(day))
	assert.Equal(t, "2025-10-12 10:30", renderValue(day.Add(10*time.Hour+30*time.Minute)))
}
