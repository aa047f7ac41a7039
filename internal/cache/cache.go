// Package cache stores remote model listings on disk, gob encoded, one file
// per listing.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind names the subdirectory a cache keeps its files in.
type Kind string

const (
	// LastGood holds the most recent listing of every model, whatever its age.
	LastGood Kind = "listings"
	// Fresh holds listings whose file name carries an expiry timestamp.
	Fresh Kind = "fresh"
)

const cacheExt = ".gob"

var errInvalidID = errors.New("invalid id")

// Cache keeps one file per id under its directory. Writes go through a
// temporary file so a reader sees either the old listing or the new one.
type Cache[T any] struct {
	dir string
}

// New creates the kind subdirectory of baseDir.
func New[T any](baseDir string, kind Kind) (*Cache[T], error) {
	dir := filepath.Join(baseDir, string(kind))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	return &Cache[T]{dir: dir}, nil
}

// checkID rejects ids that would escape the cache directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w %q", errInvalidID, id)
	}
	return nil
}

func (c *Cache[T]) path(id string) string {
	return filepath.Join(c.dir, id+cacheExt)
}

// Read hands the file stored under id to readFn. A missing file yields
// [os.ErrNotExist].
func (c *Cache[T]) Read(id string, readFn func(io.Reader) error) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("cache: read: %w", err)
	}
	f, err := os.Open(c.path(id))
	if err != nil {
		return fmt.Errorf("cache: read: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := readFn(f); err != nil {
		return fmt.Errorf("cache: read %s: %w", id, err)
	}
	return nil
}

// Write replaces the file stored under id with what writeFn produces. When
// writeFn fails the previous content stays in place.
func (c *Cache[T]) Write(id string, writeFn func(io.Writer) error) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: write %s: %w", id, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := writeFn(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: write %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), c.path(id)); err != nil {
		return fmt.Errorf("cache: write %s: %w", id, err)
	}
	return nil
}

// Delete removes the file stored under id.
func (c *Cache[T]) Delete(id string) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	if err := os.Remove(c.path(id)); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}
