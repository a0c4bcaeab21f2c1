package sessionlock

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker serializes turns per session key. The draft record is a shared
// read-modify-write resource; without this, two in-flight turns for the
// same session can race.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (token string, err error)
	Unlock(ctx context.Context, sessionID, token string) error
}

// RedisLocker holds a SetNX lock with TTL per session, released only by
// the holder that acquired it.
type RedisLocker struct {
	Client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{Client: client}
}

// getTurnLockTTL returns the turn lock TTL from environment variables or
// the default value.
func (r *RedisLocker) getTurnLockTTL() time.Duration {
	defaultTTL := 30 * time.Second

	ttlStr := os.Getenv("TURN_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}
	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil || ttlSec <= 0 {
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// Lock acquires the per-session turn lock, polling until the current
// holder releases or the context expires.
func (r *RedisLocker) Lock(ctx context.Context, sessionID string) (string, error) {
	key := "turn_lock:" + sessionID
	token := uuid.NewString()
	ttl := r.getTurnLockTTL()

	for {
		ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("session %s busy: %w", sessionID, ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// Unlock releases the turn lock if this caller still holds it.
func (r *RedisLocker) Unlock(ctx context.Context, sessionID, token string) error {
	key := "turn_lock:" + sessionID
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // expired or already released
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// LocalLocker is the in-process fallback used when redis is not
// configured: one mutex per session key.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) Lock(ctx context.Context, sessionID string) (string, error) {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return sessionID, nil
}

func (l *LocalLocker) Unlock(ctx context.Context, sessionID, token string) error {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	l.mu.Unlock()
	if !ok {
		return nil
	}
	m.Unlock()
	return nil
}
