package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	defaultL1TTL = 10 * time.Minute
	defaultL2TTL = 24 * time.Hour
)

// CachedEmbedder memoises query embeddings: an in-process go-cache in front of
// an optional shared Redis. Document embeddings bypass both levels.
type CachedEmbedder struct {
	next   Embedder
	local  *cache.Cache
	shared *redis.Client
	prefix string
	l2TTL  time.Duration
}

// NewCachedEmbedder wraps next. rdb may be nil, in which case only the
// process-local level is used. namespace separates models sharing one Redis.
func NewCachedEmbedder(next Embedder, rdb *redis.Client, namespace string) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		local:  cache.New(defaultL1TTL, 2*defaultL1TTL),
		shared: rdb,
		prefix: "emb:" + namespace + ":",
		l2TTL:  defaultL2TTL,
	}
}

func (c *CachedEmbedder) Dimension() int {
	return c.next.Dimension()
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if taskType != TaskRetrievalQuery {
		return c.next.Embed(ctx, text, taskType)
	}

	key := c.key(text)
	if v, ok := c.local.Get(key); ok {
		return v.([]float32), nil
	}

	if c.shared != nil {
		if raw, err := c.shared.Get(ctx, key).Bytes(); err == nil {
			var values []float32
			if json.Unmarshal(raw, &values) == nil && len(values) == c.next.Dimension() {
				c.local.SetDefault(key, values)
				return values, nil
			}
		}
	}

	values, err := c.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	c.local.SetDefault(key, values)
	if c.shared != nil {
		if raw, err := json.Marshal(values); err == nil {
			// Cache writes are best effort.
			_ = c.shared.Set(ctx, key, raw, c.l2TTL).Err()
		}
	}
	return values, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}
