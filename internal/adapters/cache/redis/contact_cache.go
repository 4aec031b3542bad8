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

// ContactListCache stores contact pages under
// contacts:{userID}:{limit}:{offset}, one entry per page.
type ContactListCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewContactListCache(client *goredis.Client, ttl time.Duration) ports.ContactListCache {
	return &ContactListCache{client: client, ttl: ttl}
}

func listKey(userID uuid.UUID, limit, offset int) string {
	return fmt.Sprintf("contacts:%s:%d:%d", userID, limit, offset)
}

func listPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("contacts:%s:*", userID)
}

func (c *ContactListCache) Get(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, bool, error) {
	data, err := c.client.Get(ctx, listKey(userID, limit, offset)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached contact list: %w", err)
	}

	var contacts []domain.Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached contact list: %w", err)
	}
	return contacts, true, nil
}

func (c *ContactListCache) Set(ctx context.Context, userID uuid.UUID, limit, offset int, contacts []domain.Contact) error {
	data, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("failed to encode contact list: %w", err)
	}
	if err := c.client.Set(ctx, listKey(userID, limit, offset), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache contact list: %w", err)
	}
	return nil
}

// InvalidateUser deletes every cached page of the user's contact list.
func (c *ContactListCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	iter := c.client.Scan(ctx, 0, listPrefix(userID), 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached contact lists: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cached contact lists: %w", err)
	}
	return nil
}
