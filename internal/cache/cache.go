// SPDX-License-Identifier: MIT

// Package cache implements the two-tier cache described by the system: a
// process-local read path backed by a remote key/value store, with a single
// background writer draining an unbounded queue of writes so that callers
// populating the cache never block on the network. Reads always block until
// the local tier or the remote store answers; writes never do.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/model"
)

// ErrNotFound is returned by a Store's Get when the key is absent. It is not
// an application error; callers translate it into a cache miss.
var ErrNotFound = errors.New("cache: key not found")

// Store is the remote key/value store contract. Implementations deal in
// raw bytes; Cache owns JSON (de)serialization so Store stays swappable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

// Cache is the two-tier cache: a process-local map consulted first, falling
// through to the remote Store on miss. A hit against the remote store primes
// the local tier so repeat reads in this process skip the network entirely.
type Cache struct {
	local  *memoryCache
	remote Store
	writer *writer
	logger zerolog.Logger
}

// New builds a Cache over remote and starts its background writer. The
// returned WriterHandle's Shutdown drains all pending background writes
// before returning; callers should hold onto it and call Shutdown during
// graceful shutdown.
func New(remote Store, logger zerolog.Logger) (*Cache, *WriterHandle) {
	local := newMemoryCache(time.Minute)
	w := newWriter(remote, logger)
	c := &Cache{local: local, remote: remote, writer: w, logger: logger}
	return c, &WriterHandle{w: w}
}

// WriterHandle lets the owner drain the background writer on shutdown
// without exposing the writer itself to cache callers.
type WriterHandle struct{ w *writer }

// Shutdown blocks until every enqueued background write has been flushed to
// the remote store (or failed and been logged), then returns.
func (h *WriterHandle) Shutdown() { h.w.shutdown() }

// Close stops the local tier's janitor and closes the remote store.
func (c *Cache) Close() error {
	c.local.stop()
	return c.remote.Close()
}

// Get fetches key, trying the local tier before the remote store. It blocks
// until an answer is available. A miss (not an error) returns found=false.
func Get[T any](ctx context.Context, c *Cache, key model.CacheKey) (value T, found bool, err error) {
	wireKey := key.String()

	if raw, ok := c.local.get(wireKey); ok {
		if err := json.Unmarshal(raw.([]byte), &value); err != nil {
			return value, false, apperr.InternalWrap(err, "cache: corrupt local entry for %s", wireKey)
		}
		return value, true, nil
	}

	raw, err := c.remote.Get(ctx, wireKey)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, apperr.Cache(err, "cache get failed for %s", wireKey)
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, apperr.InternalWrap(err, "cache: corrupt remote entry for %s", wireKey)
	}
	c.local.set(wireKey, raw, defaultLocalTTL)
	return value, true, nil
}

// SetInBackground serializes value and enqueues it for asynchronous write to
// the remote store, priming the local tier immediately so same-process
// readers see it right away. Serialization failures are logged and dropped;
// this call never blocks on the network and never returns an error.
func SetInBackground[T any](c *Cache, key model.CacheKey, value T, ttl time.Duration) {
	wireKey := key.String()
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error().Err(err).Str("key", wireKey).Msg("cache: serialization failed, dropping write")
		return
	}
	c.local.set(wireKey, data, ttl)
	c.writer.enqueue(writeMessage{key: wireKey, json: data, ttl: ttl})
}

// Cached composes Get and SetInBackground: a cache hit short-circuits
// compute; a miss calls compute, writes the result back asynchronously, and
// returns it. Errors from compute propagate unchanged.
func Cached[T any](ctx context.Context, c *Cache, key model.CacheKey, ttl time.Duration, compute func() (T, error)) (T, error) {
	if v, found, err := Get[T](ctx, c, key); err != nil {
		var zero T
		return zero, err
	} else if found {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	SetInBackground(c, key, v, ttl)
	return v, nil
}

// defaultLocalTTL bounds how long a remote hit stays in the local tier.
// Short relative to typical remote TTLs: the local tier exists to absorb
// bursts of repeat reads within a process, not to replace the remote store.
const defaultLocalTTL = 5 * time.Minute
