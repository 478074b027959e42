package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to AppError with a consistent status code.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapQdrant maps vector index errors.
func WrapQdrant(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, QdrantErrorMessage)
}

// WrapPostgres maps structured store errors. Missing rows are not treated as failures by callers,
// but still carry a 404 so the HTTP layer can tell them apart.
func WrapPostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, PostgresErrorMessage)
	}
	return New(err, http.StatusBadGateway, PostgresErrorMessage)
}

// WrapUpstream maps chat model, embedding and model-registry failures.
func WrapUpstream(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, UpstreamErrorMessage)
}
