package connector

import (
	"context"
	"errors"
	"sync"
	"time"

	"farmsathi/internal/logger"
	"farmsathi/pkg"
)

// Connector is an adapter to an external structured-data source. Fetch never
// fails the caller: on remote errors it degrades to the last known snapshot
// (marked stale) or to a labeled synthetic placeholder.
type Connector interface {
	Name() string
	Fetch(ctx context.Context, queryKey string) (*pkg.ExternalDataSnapshot, error)
}

// remoteFunc performs exactly one remote call for queryKey.
type remoteFunc func(ctx context.Context, queryKey string) (*pkg.ExternalDataSnapshot, error)

// syntheticFunc builds a placeholder snapshot when no real data exists.
type syntheticFunc func(queryKey string) *pkg.ExternalDataSnapshot

// snapshotCache implements the shared get-or-fetch-and-store contract:
// a fresh cached snapshot is returned with zero remote calls; a miss or
// expiry triggers exactly one bounded remote attempt.
type snapshotCache struct {
	name      string
	ttl       time.Duration
	timeout   time.Duration
	remote    remoteFunc
	synthetic syntheticFunc
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*pkg.ExternalDataSnapshot
}

func newSnapshotCache(name string, ttl, timeout time.Duration, remote remoteFunc, synthetic syntheticFunc) *snapshotCache {
	return &snapshotCache{
		name:      name,
		ttl:       ttl,
		timeout:   timeout,
		remote:    remote,
		synthetic: synthetic,
		now:       time.Now,
		entries:   make(map[string]*pkg.ExternalDataSnapshot),
	}
}

func (c *snapshotCache) lookup(queryKey string) *pkg.ExternalDataSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[queryKey]
}

func (c *snapshotCache) store(queryKey string, snap *pkg.ExternalDataSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[queryKey] = snap
}

// fetch runs the cache contract for queryKey. The remote call happens outside
// the cache lock so unrelated keys never serialize.
func (c *snapshotCache) fetch(ctx context.Context, queryKey string) (*pkg.ExternalDataSnapshot, error) {
	now := c.now()

	if cached := c.lookup(queryKey); cached != nil && !cached.Expired(now) && cached.Freshness == pkg.FreshnessLive {
		out := *cached
		return &out, nil
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	snap, err := c.remote(rctx, queryKey)
	if err == nil {
		snap.Provider = c.name
		snap.QueryKey = queryKey
		snap.FetchedAt = now
		snap.TTL = int(c.ttl.Seconds())
		snap.Freshness = pkg.FreshnessLive
		stored := *snap
		c.store(queryKey, &stored)
		return snap, nil
	}

	evt := logger.Warn().Str("connector", c.name).Str("query_key", queryKey)
	if errors.Is(err, context.DeadlineExceeded) {
		evt.Msg("remote fetch timed out")
	} else {
		evt.Err(err).Msg("remote fetch failed")
	}

	// Fall back to the last known snapshot, marked stale.
	if cached := c.lookup(queryKey); cached != nil {
		out := *cached
		out.Freshness = pkg.FreshnessStale
		return &out, nil
	}

	// No history at all: labeled synthetic placeholder.
	syn := c.synthetic(queryKey)
	syn.Provider = c.name
	syn.QueryKey = queryKey
	syn.FetchedAt = now
	syn.TTL = int(c.ttl.Seconds())
	syn.Freshness = pkg.FreshnessSynthetic
	return syn, nil
}
