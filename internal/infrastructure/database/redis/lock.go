package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// Only the token holder may release or extend the lock.
var (
	unlockScript = goredis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)
	extendScript = goredis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// ErrLockNotHeld is returned when releasing or extending a lock this
// instance no longer holds.
var ErrLockNotHeld = errors.New(errors.ErrCodeCacheError, "run lock not held")

// RunLock serializes pipeline runs across worker instances.  The in-process
// guard in the engine only covers a single node; this covers the fleet.
type RunLock struct {
	client *Client
	logger logging.Logger
	name   string
	ttl    time.Duration
	token  string
}

// NewRunLock builds a lock with the given name and TTL.  The TTL should
// comfortably exceed the longest expected run; Extend refreshes it for
// long-running batches.
func NewRunLock(client *Client, name string, ttl time.Duration, log logging.Logger) *RunLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RunLock{
		client: client,
		logger: log.Named("run_lock"),
		name:   name,
		ttl:    ttl,
	}
}

func (l *RunLock) key() string {
	return l.client.Key("lock", l.name)
}

// TryLock attempts to acquire the lock without blocking.  It returns false
// when another instance holds it.
func (l *RunLock) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.RDB().SetNX(ctx, l.key(), token, l.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "acquiring run lock")
	}
	if !ok {
		return false, nil
	}
	l.token = token
	l.logger.Debug("acquired run lock", logging.String("name", l.name))
	return true, nil
}

// Unlock releases the lock if this instance still holds it.
func (l *RunLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return ErrLockNotHeld
	}
	released, err := unlockScript.Run(ctx, l.client.RDB(), []string{l.key()}, l.token).Int()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "releasing run lock")
	}
	l.token = ""
	if released == 0 {
		return ErrLockNotHeld
	}
	l.logger.Debug("released run lock", logging.String("name", l.name))
	return nil
}

// Extend pushes the expiry out by the lock's TTL.
func (l *RunLock) Extend(ctx context.Context) error {
	if l.token == "" {
		return ErrLockNotHeld
	}
	extended, err := extendScript.Run(ctx, l.client.RDB(),
		[]string{l.key()}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "extending run lock")
	}
	if extended == 0 {
		return ErrLockNotHeld
	}
	return nil
}
