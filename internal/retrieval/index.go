package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// QdrantIndex is a VectorIndex over one Qdrant collection.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
}

func NewQdrantIndex(client *qdrant.Client, collection string, vectorSize uint64) *QdrantIndex {
	return &QdrantIndex{client: client, collection: collection, vectorSize: vectorSize}
}

// EnsureCollection creates the collection with cosine distance when it is missing.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return errx.WrapQdrant(fmt.Errorf("check collection %q: %w", q.collection, err))
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return errx.WrapQdrant(fmt.Errorf("create collection %q: %w", q.collection, err))
	}
	logx.Info().Str("collection", q.collection).Uint64("vector_size", q.vectorSize).Msg("Created vector collection")
	return nil
}

// Query implements VectorIndex.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	l := uint64(limit)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &l,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errx.WrapQdrant(err)
	}
	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		hits = append(hits, Hit{
			ID:      pointID(p.GetId()),
			Score:   float64(p.GetScore()),
			Payload: payloadMap(p.GetPayload()),
		})
	}
	return hits, nil
}

// Ping reports whether the Qdrant server is healthy.
func (q *QdrantIndex) Ping(ctx context.Context) error {
	_, err := q.client.HealthCheck(ctx)
	return errx.WrapQdrant(err)
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func payloadMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	default:
		return nil
	}
}
