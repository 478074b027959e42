package model

import "context"

type SessionRepository interface {
	// Get returns the session for key, or a fresh one when none is stored.
	Get(ctx context.Context, key string) (*Session, error)

	// Put stores the session under its key.
	Put(ctx context.Context, session *Session) error

	// Lock serialises turns on one key. The returned func releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
