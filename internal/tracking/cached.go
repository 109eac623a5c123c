package tracking

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/cache"
)

const (
	cacheOperation  = "track"
	DefaultCacheTTL = 5 * time.Minute
)

// Cached is a read-through cache in front of a lookup. Records are cached by
// order id only; the phone number is checked against every hit. Cache
// failures are logged and the wrapped lookup is used instead.
type Cached struct {
	next  Lookup
	cache cache.Cache
	ttl   time.Duration
}

func NewCached(next Lookup, c cache.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	req, err := req.Normalize()
	if err != nil {
		return order.Confirmation{}, err
	}

	key := c.cache.GenerateKey(cacheOperation, req.OrderID)
	if rec, ok := c.lookupCache(ctx, key); ok {
		if !PhoneMatches(rec.Phone, req.Phone) {
			return order.Confirmation{}, ErrOrderNotFound
		}
		return rec, nil
	}

	rec, err := c.next.Track(ctx, req)
	if err != nil {
		return rec, err
	}
	c.Put(ctx, rec)
	return rec, nil
}

// Put stores rec under its order id.
func (c *Cached) Put(ctx context.Context, rec order.Confirmation) {
	b, err := json.Marshal(rec)
	if err != nil {
		slog.ErrorContext(ctx, "encode order for cache", "order_id", rec.OrderID, "error", err)
		return
	}
	key := c.cache.GenerateKey(cacheOperation, rec.OrderID)
	if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops the cached record for orderID.
func (c *Cached) Invalidate(ctx context.Context, orderID string) error {
	return c.cache.Delete(ctx, c.cache.GenerateKey(cacheOperation, orderID))
}

func (c *Cached) lookupCache(ctx context.Context, key string) (order.Confirmation, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return order.Confirmation{}, false
	}
	if raw == "" {
		return order.Confirmation{}, false
	}
	var rec order.Confirmation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", err)
		return order.Confirmation{}, false
	}
	return rec, true
}
