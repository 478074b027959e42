package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisSessionRepository struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	lockTTL  time.Duration
	lockWait time.Duration
	now      func() time.Time
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl, lockTTL, lockWait time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, lockTTL: lockTTL, lockWait: lockWait, now: time.Now}
}

func (r *RedisSessionRepository) sessionKey(key string) string {
	return fmt.Sprintf("session:%s", key)
}

func (r *RedisSessionRepository) lockKey(key string) string {
	return fmt.Sprintf("session:%s:lock", key)
}

func (r *RedisSessionRepository) Get(ctx context.Context, key string) (*model.Session, error) {
	rk := r.sessionKey(key)
	raw, err := r.rdb.Get(ctx, rk).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewSession(key, r.now()), nil
		}
		logx.Error().Err(err).Str("key", rk).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logx.Error().Err(err).Str("session_key", key).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.Key == "" {
		s.Key = key
	}
	return &s, nil
}

func (r *RedisSessionRepository) Put(ctx context.Context, s *model.Session) error {
	if s == nil || s.Key == "" {
		return errx.Validation("session without key")
	}
	s.UpdatedAt = r.now()
	b, err := json.Marshal(s)
	if err != nil {
		logx.Error().Err(err).Str("session_key", s.Key).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	rk := r.sessionKey(s.Key)
	// TTL is refreshed on every write; 0 keeps the key forever
	if err := r.rdb.Set(ctx, rk, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", rk).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Lock acquires a token lock with SET NX PX, polling until lockWait elapses.
func (r *RedisSessionRepository) Lock(ctx context.Context, key string) (func(), error) {
	lk := r.lockKey(key)
	token := uuid.NewString()
	deadline := r.now().Add(r.lockWait)
	backoff := 25 * time.Millisecond

	for {
		ok, err := r.rdb.SetNX(ctx, lk, token, r.lockTTL).Result()
		if err != nil {
			logx.Error().Err(err).Str("key", lk).Msg("failed to acquire session lock")
			return nil, errx.WrapRedis(err)
		}
		if ok {
			break
		}
		if !r.now().Before(deadline) {
			logx.Warn().Str("session_key", key).Dur("waited", r.lockWait).Msg("session lock busy")
			return nil, errx.New(errx.ErrSessionLocked, http.StatusConflict, "session is busy")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}

	return func() {
		// release with a fresh context so a cancelled turn still unlocks
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, r.rdb, []string{lk}, token).Err(); err != nil {
			logx.Warn().Err(err).Str("key", lk).Msg("failed to release session lock")
		}
	}, nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
