package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation(t *testing.T) {
	err := Validation("query must not be empty")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Contains(t, err.Error(), "query must not be empty")

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("turn: %w", err), &appErr)
	assert.Equal(t, ValidationErrorMessage, appErr.Message)
}

func TestWrappers(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Nil(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(cause)))
	assert.ErrorIs(t, WrapRedis(cause), cause)

	assert.Equal(t, http.StatusNotFound, StatusOf(WrapPostgres(pgx.ErrNoRows)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapPostgres(cause)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapQdrant(cause)))

	up := WrapUpstream(ErrEmptyGeneration)
	assert.ErrorIs(t, up, ErrEmptyGeneration)
	assert.Contains(t, up.Error(), UpstreamErrorMessage)
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
	assert.Equal(t, "boom", New(nil, http.StatusTeapot, "boom").Error())
}
