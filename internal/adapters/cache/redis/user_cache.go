package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

// UserCache stores JSON snapshots of users under user:{id}. Fields
// tagged json:"-" on domain.User are never serialized, so a cached
// snapshot carries no password or token material.
type UserCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewUserCache(client *goredis.Client, ttl time.Duration) ports.UserCache {
	return &UserCache{client: client, ttl: ttl}
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (c *UserCache) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	data, err := c.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}

	user := &domain.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return user, nil
}

func (c *UserCache) Set(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.client.Set(ctx, userKey(user.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

func (c *UserCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached user: %w", err)
	}
	return nil
}
