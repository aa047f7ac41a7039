package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ExpiringCache is a cache implementation that supports expiration of cached items.
type ExpiringCache[T any] struct {
	cache *Cache[T]
	now   func() time.Time
}

// NewExpiring creates a new cache instance that supports item expiration.
func NewExpiring[T any](path string) (*ExpiringCache[T], error) {
	cache, err := New[T](path, Fresh)
	if err != nil {
		return nil, fmt.Errorf("create expiring cache: %w", err)
	}
	return &ExpiringCache[T]{cache: cache, now: time.Now}, nil
}

func (c *ExpiringCache[T]) getCacheFilename(id string, expiresAt int64) string {
	return fmt.Sprintf("%s.%d", id, expiresAt)
}

func (c *ExpiringCache[T]) matches(id string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.cache.dir, id+".*"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return matches, nil
}

// expiry extracts the expiration timestamp from a cache file name. IDs may
// contain dots, the timestamp is whatever follows the last one.
func expiry(path string) (int64, error) {
	name := filepath.Base(path)
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return 0, fmt.Errorf("invalid cache filename %q", name)
	}
	expiresAt, err := strconv.ParseInt(name[i+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expiration timestamp in %q", name)
	}
	return expiresAt, nil
}

// Read calls readFn with the item stored under id. Missing and expired items
// yield [os.ErrNotExist]; expired ones are removed.
func (c *ExpiringCache[T]) Read(id string, readFn func(io.Reader) error) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("cache: read: %w", err)
	}
	matches, err := c.matches(id)
	if err != nil {
		return fmt.Errorf("read expiring cache: %w", err)
	}
	if len(matches) == 0 {
		return os.ErrNotExist
	}

	expiresAt, err := expiry(matches[0])
	if err != nil {
		return err
	}
	if expiresAt < c.now().Unix() {
		if err := os.Remove(matches[0]); err != nil {
			return fmt.Errorf("remove expired cache file: %w", err)
		}
		return os.ErrNotExist
	}

	file, err := os.Open(matches[0])
	if err != nil {
		return fmt.Errorf("open expiring cache file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return readFn(file)
}

// Write stores the item under id until expiresAt, replacing older copies.
func (c *ExpiringCache[T]) Write(id string, expiresAt int64, writeFn func(io.Writer) error) (err error) {
	if err := checkID(id); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := c.Delete(id); err != nil {
		return err
	}

	filename := c.getCacheFilename(id, expiresAt)
	file, err := os.Create(filepath.Join(c.cache.dir, filename))
	if err != nil {
		return fmt.Errorf("create expiring cache file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return writeFn(file)
}

// Delete removes a cached item by its ID, expired or not.
func (c *ExpiringCache[T]) Delete(id string) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	matches, err := c.matches(id)
	if err != nil {
		return fmt.Errorf("delete expiring cache: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("delete expiring cache file: %w", err)
		}
	}
	return nil
}
