package retrieval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

func record(query, doc, heading string, score any) Record {
	return Record{
		FieldQueryText:       query,
		FieldFullText:        doc,
		FieldHeading:         heading,
		FieldSimilarityScore: score,
	}
}

func TestFeatureExtractor_PriceHeuristic(t *testing.T) {
	fe := NewFeatureExtractor()
	doc := "Facial Brightening hanya Rp 500.000 per sesi"

	out, err := fe.Transform([]Record{
		record("berapa harga treatment ini", doc, "Facial", 0.7),
		record("halo", doc, "Facial", 0.7),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 1.0, out[0][6])
	assert.Equal(t, 0.0, out[1][6])
}

func TestFeatureExtractor_FixedOrder(t *testing.T) {
	out, err := NewFeatureExtractor().Transform([]Record{
		record("Harga Facial", "Facial Rp 100", "Facial", 0.8),
	})
	require.NoError(t, err)
	require.Len(t, out[0], len(FeatureNames))

	v := out[0]
	assert.Equal(t, 0.8, v[0])
	assert.Equal(t, 13.0, v[1])
	assert.Equal(t, 12.0, v[2])
	assert.Equal(t, 0.5, v[3])
	assert.Equal(t, 100.0, v[4])
	assert.Greater(t, v[5], 0.0)
	assert.Less(t, v[5], 100.0)
	assert.Equal(t, 1.0, v[6])
}

func TestFeatureExtractor_Deterministic(t *testing.T) {
	fe := NewFeatureExtractor()
	batch := []Record{
		record("jadwal dokter kulit", "Dokter Sari praktek Senin sampai Jumat", "Jadwal Dokter", 0.91),
		record("jadwal dokter kulit", "Laser CO2 untuk bekas jerawat", "Laser", 0.42),
	}
	first, err := fe.Transform(batch)
	require.NoError(t, err)
	second, err := fe.Transform(batch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFeatureExtractor_NullsAndInvalidScore(t *testing.T) {
	out, err := NewFeatureExtractor().Transform([]Record{
		{FieldQueryText: nil, FieldFullText: nil, FieldHeading: nil, FieldSimilarityScore: "not-a-number"},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 100, 100, 0}, out[0])
}

func TestFeatureExtractor_WordOverlapWithoutQueryTokens(t *testing.T) {
	out, err := NewFeatureExtractor().Transform([]Record{record("   ", "apa saja", "", 0.1)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0][3])
}

func TestFeatureExtractor_Validation(t *testing.T) {
	fe := NewFeatureExtractor()

	_, err := fe.Transform(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrValidation))

	_, err = fe.Transform([]Record{{FieldQueryText: "q", FieldFullText: "d", FieldSimilarityScore: 0.3}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrValidation))
	assert.Contains(t, err.Error(), FieldHeading)
}
