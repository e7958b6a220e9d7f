package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "provi:session:"

// RedisSessionStore keeps sessions in Redis and lets key TTLs handle expiry.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(ctx context.Context, addr, password string, db int) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return &RedisSessionStore{client: client}, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *RedisSessionStore) SaveSession(ctx context.Context, session *Session) error {
	if !session.Valid() {
		return ErrInvalidSession
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return s.DeleteSession(ctx, session.ID)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if !session.Valid() {
		return nil, ErrInvalidSession
	}
	return &session, nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op: Redis expires keys on its own.
func (s *RedisSessionStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
