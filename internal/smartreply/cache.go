package smartreply

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"group-chat-service/internal/observability"
)

const cacheTTL = 10 * time.Minute

// Cache is a redis cache-aside layer over suggestion lookups: two users
// reacting to the same message share one completion call.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache wraps a redis client; a nil client disables caching.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, prefix: "smartreply:"}
}

func (c *Cache) key(message string) string {
	sum := sha256.Sum256([]byte(message))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns cached suggestions and whether the lookup hit.
func (c *Cache) Get(ctx context.Context, message string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.key(message)).Bytes()
	if err != nil {
		observability.IncSmartReplyCache("miss")
		return nil, false
	}

	var suggestions []string
	if err := json.Unmarshal(data, &suggestions); err != nil {
		observability.IncSmartReplyCache("miss")
		return nil, false
	}
	observability.IncSmartReplyCache("hit")
	return suggestions, true
}

// Set stores suggestions with a TTL; failures are ignored, the cache is an
// optimization only.
func (c *Cache) Set(ctx context.Context, message string, suggestions []string) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(message), data, cacheTTL).Err(); err != nil {
		observability.IncSmartReplyCache("error")
	}
}
