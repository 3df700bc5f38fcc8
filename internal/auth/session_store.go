package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/employee-portal/internal/domain"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user-sessions:"
)

// SessionStore keeps live sessions; a session absent from the store is signed out.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, session *domain.Session) error
	ListForUser(ctx context.Context, userID string) ([]string, error)
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a Redis-backed store.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

// Save writes the session with a TTL matching its expiry and indexes it by user.
func (s *redisSessionStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("auth: session %s already expired", session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}

	userKey := userSessionKeyPrefix + session.UserID
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl)
	pipe.SAdd(ctx, userKey, session.ID)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, storeError(err)
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("auth: decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, session *domain.Session) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+session.ID)
	pipe.SRem(ctx, userSessionKeyPrefix+session.UserID, session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

// ListForUser returns the ids indexed for userID. Ids whose session already expired
// may still be listed; Get reports them as not found.
func (s *redisSessionStore) ListForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, userSessionKeyPrefix+userID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, storeError(err)
	}
	return ids, nil
}

func storeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("session store: %w: %v", apperrors.ErrUpstreamRequestFailed, err)
}
