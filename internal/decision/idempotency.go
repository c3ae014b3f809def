package decision

import (
	"sync"
	"time"
)

// idempotencyKey identifies a request for dedup purposes: tenant plus the
// caller-supplied request_id.
type idempotencyKey struct {
	tenant string
	id     string
}

type cachedResponse struct {
	digest    [32]byte
	response  Response
	expiresAt time.Time
}

// idempotencyCache retains one response per (tenant_id, request_id) for a
// bounded window, spec.md §4.5 "Idempotency".
type idempotencyCache struct {
	mu       sync.Mutex
	entries  map[idempotencyKey]cachedResponse
	retainFor time.Duration
}

func newIdempotencyCache(retainFor time.Duration) *idempotencyCache {
	return &idempotencyCache{
		entries:   make(map[idempotencyKey]cachedResponse),
		retainFor: retainFor,
	}
}

// lookup returns (response, true, true) on a replay with a matching
// digest; (Response{}, true, false) on a replay with a differing digest
// (the caller should return Conflict); (Response{}, false, false) when
// there is no prior record and the caller should proceed normally.
func (c *idempotencyCache) lookup(tenant, requestID string, digest [32]byte, now time.Time) (resp Response, found bool, matched bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := idempotencyKey{tenant: tenant, id: requestID}
	entry, ok := c.entries[key]
	if !ok || now.After(entry.expiresAt) {
		return Response{}, false, false
	}
	if entry.digest != digest {
		return Response{}, true, false
	}
	return entry.response, true, true
}

func (c *idempotencyCache) store(tenant, requestID string, digest [32]byte, resp Response, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[idempotencyKey{tenant: tenant, id: requestID}] = cachedResponse{
		digest:    digest,
		response:  resp,
		expiresAt: now.Add(c.retainFor),
	}
	c.evictExpiredLocked(now)
}

func (c *idempotencyCache) evictExpiredLocked(now time.Time) {
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
}
