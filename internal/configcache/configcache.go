// Package configcache memoizes a loaded configuration for the life of the
// process, with explicit invalidation and single-flight loading.
package configcache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc loads a fresh value.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Cache holds at most one loaded value. Concurrent Load calls on a cold
// cache share a single call to the load function.
type Cache[T any] struct {
	load  LoadFunc[T]
	group singleflight.Group

	mu    sync.Mutex
	value T
	ok    bool
	gen   uint64
}

// New returns an empty cache backed by load.
func New[T any](load LoadFunc[T]) *Cache[T] {
	return &Cache[T]{load: load}
}

// Load returns the cached value, loading it first if needed. A failed load
// leaves the cache empty so the next call tries again. Cancelling ctx only
// stops this caller from waiting; a shared load keeps running for the others.
func (c *Cache[T]) Load(ctx context.Context) (T, error) {
	c.mu.Lock()
	if c.ok {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gen
	c.mu.Unlock()

	// loads started before an Invalidate must not be joined after it.
	key := strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.Lock()
		if c.ok && c.gen == gen {
			val := c.value
			c.mu.Unlock()
			return val, nil
		}
		c.mu.Unlock()

		val, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.value, c.ok = val, true
		}
		c.mu.Unlock()
		return val, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err() //nolint:wrapcheck
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err //nolint:wrapcheck
		}
		return res.Val.(T), nil //nolint:forcetypeassert
	}
}

// Invalidate drops the cached value. It does not reload; the next Load
// does. A load in flight while Invalidate runs still answers its callers
// but its result is not kept.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value, c.ok = zero, false
	c.group.Forget(strconv.FormatUint(c.gen, 10))
	c.gen++
}

// Cached returns the cached value without loading.
func (c *Cache[T]) Cached() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.ok
}
