package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache implements ports.CacheStore on Valkey (Redis-compatible). The server
// deployments use it so api and worker replicas share one geodata cache.
type Cache struct {
	client valkey.Client
}

// New creates a Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a value by key. An absent key is (nil, nil), not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores a value. ttlSeconds 0 stores without expiry: geodata snapshots
// never go stale, only job-status entries carry a TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	set := c.client.B().Set().Key(key).Value(string(value))
	if ttlSeconds > 0 {
		return c.client.Do(ctx, set.Ex(time.Duration(ttlSeconds)*time.Second).Build()).Error()
	}
	return c.client.Do(ctx, set.Build()).Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
