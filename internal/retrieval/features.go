package retrieval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
)

// Record field names required by the FeatureExtractor.
const (
	FieldQueryText       = "query_text"
	FieldFullText        = "full_text"
	FieldHeading         = "h1"
	FieldSimilarityScore = "qdrant_score"
)

var requiredFields = []string{FieldQueryText, FieldFullText, FieldHeading, FieldSimilarityScore}

// FeatureNames is the fixed column order of every feature vector.
var FeatureNames = []string{
	"similarity_score",
	"doc_length",
	"query_length",
	"word_overlap",
	"heading_match",
	"fuzzy_ratio",
	"is_price_match",
}

const fuzzyDocPrefix = 500

var (
	priceKeywords  = []string{"harga", "biaya", "price", "rp"}
	currencyMarker = "rp"
)

// Record is one loosely typed (query, document) row.
type Record map[string]any

// RecordFor builds the extractor input for a query and a candidate.
func RecordFor(query string, c Candidate) Record {
	return Record{
		FieldQueryText:       query,
		FieldFullText:        c.Text,
		FieldHeading:         c.Heading,
		FieldSimilarityScore: c.SimilarityScore,
	}
}

// FeatureExtractor turns query/document rows into fixed-order feature vectors.
// It holds no state and is safe for concurrent use.
type FeatureExtractor struct{}

func NewFeatureExtractor() *FeatureExtractor { return &FeatureExtractor{} }

// Transform validates the batch and returns one len(FeatureNames) vector per record.
// An empty batch or a record without a required field is a programmer error.
func (FeatureExtractor) Transform(records []Record) ([][]float64, error) {
	if len(records) == 0 {
		return nil, errx.Validation("feature extractor: empty batch")
	}
	for i, r := range records {
		for _, f := range requiredFields {
			if _, ok := r[f]; !ok {
				return nil, errx.Validation("feature extractor: record %d missing field %q", i, f)
			}
		}
	}

	out := make([][]float64, len(records))
	for i, r := range records {
		query := strings.ToLower(text(r[FieldQueryText]))
		doc := strings.ToLower(text(r[FieldFullText]))
		heading := strings.ToLower(text(r[FieldHeading]))

		out[i] = []float64{
			number(r[FieldSimilarityScore]),
			float64(utf8.RuneCountInString(doc)),
			float64(utf8.RuneCountInString(query)),
			wordOverlap(query, doc),
			PartialRatio(query, heading),
			Ratio(query, prefix(doc, fuzzyDocPrefix)),
			priceMatch(query, doc),
		}
	}
	return out, nil
}

func wordOverlap(query, doc string) float64 {
	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return 0
	}
	dTokens := tokenSet(doc)
	shared := 0
	for t := range qTokens {
		if _, ok := dTokens[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(qTokens))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func priceMatch(query, doc string) float64 {
	if !strings.Contains(doc, currencyMarker) {
		return 0
	}
	for _, kw := range priceKeywords {
		if strings.Contains(query, kw) {
			return 1
		}
	}
	return 0
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	default:
		return fmt.Sprint(t)
	}
}

func number(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
