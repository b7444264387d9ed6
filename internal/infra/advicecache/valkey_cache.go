package advicecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/suncare/internal/domain/advice"
)

// ValkeyCache persists advice in a Valkey-compatible database so replicas share it.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "suncare"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get implements advice.Cache.
func (c *ValkeyCache) Get(ctx context.Context, key string) (advice.Response, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.key(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return advice.Response{}, false, nil
		}
		return advice.Response{}, false, err
	}
	var resp advice.Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return advice.Response{}, false, err
	}
	return resp, true, nil
}

// Set implements advice.Cache.
func (c *ValkeyCache) Set(ctx context.Context, key string, resp advice.Response, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) key(key string) string {
	return c.prefix + ":" + key
}

var _ advice.Cache = (*ValkeyCache)(nil)
