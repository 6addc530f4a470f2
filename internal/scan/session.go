package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache keeps the last confirmation per operator so a reconnecting
// device can replay where it left off. Best effort: cache failures never
// block scanning.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache constructs the cache.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{client: client, ttl: ttl}
}

func sessionKey(operatorCode string) string {
	return fmt.Sprintf("scan:last:%s", operatorCode)
}

// StoreLast records the latest confirmation for the operator.
func (s *SessionCache) StoreLast(ctx context.Context, operatorCode string, confirmation Confirmation) error {
	if s == nil || s.client == nil {
		return nil
	}
	data, err := json.Marshal(confirmation)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(operatorCode), data, s.ttl).Err()
}

// LoadLast returns the latest confirmation for the operator, or nil when none
// is cached.
func (s *SessionCache) LoadLast(ctx context.Context, operatorCode string) (*Confirmation, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	data, err := s.client.Get(ctx, sessionKey(operatorCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var confirmation Confirmation
	if err := json.Unmarshal(data, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// Clear drops the cached confirmation, used when an operator disconnects
// cleanly.
func (s *SessionCache) Clear(ctx context.Context, operatorCode string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, sessionKey(operatorCode)).Err()
}
