package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/charmbracelet/llmconn/internal/catalog"
)

// Listing is the remote model list of one configured model.
type Listing struct {
	Title   string
	APIBase string
	Fetched time.Time
	Entries []catalog.Entry
}

// Listings caches remote model listings. Fresh copies expire after the TTL;
// the last copy written is kept around for [Listings.Stale].
type Listings struct {
	fresh *ExpiringCache[Listing]
	last  *Cache[Listing]
	ttl   time.Duration
}

// NewListings creates a listing cache under dir.
func NewListings(dir string, ttl time.Duration) (*Listings, error) {
	fresh, err := NewExpiring[Listing](dir)
	if err != nil {
		return nil, err
	}
	last, err := New[Listing](dir, LastGood)
	if err != nil {
		return nil, err
	}
	return &Listings{
		fresh: fresh,
		last:  last,
		ttl:   ttl,
	}, nil
}

// ListingID identifies the listing of a model. Changing the endpoint of a
// title yields a new ID.
func ListingID(title, apiBase string) string {
	sum := sha256.Sum256([]byte(title + "\x00" + apiBase))
	return hex.EncodeToString(sum[:])[:32]
}

// Read returns the fresh listing stored for title and apiBase.
func (l *Listings) Read(title, apiBase string) (Listing, error) {
	var listing Listing
	err := l.fresh.Read(ListingID(title, apiBase), func(r io.Reader) error {
		return decode(r, &listing)
	})
	return listing, err
}

// Stale returns the last listing ever written for title and apiBase,
// regardless of its age.
func (l *Listings) Stale(title, apiBase string) (Listing, error) {
	var listing Listing
	err := l.last.Read(ListingID(title, apiBase), func(r io.Reader) error {
		return decode(r, &listing)
	})
	return listing, err
}

// Write stores listing.
func (l *Listings) Write(listing Listing) error {
	id := ListingID(listing.Title, listing.APIBase)
	if listing.Fetched.IsZero() {
		listing.Fetched = time.Now()
	}
	expiresAt := listing.Fetched.Add(l.ttl).Unix()
	if err := l.fresh.Write(id, expiresAt, func(w io.Writer) error {
		return encode(w, &listing)
	}); err != nil {
		return err
	}
	return l.last.Write(id, func(w io.Writer) error {
		return encode(w, &listing)
	})
}

// Delete forgets every copy of the listing.
func (l *Listings) Delete(title, apiBase string) error {
	id := ListingID(title, apiBase)
	if err := l.fresh.Delete(id); err != nil {
		return err
	}
	if err := l.last.Delete(id); err != nil && !isNotExist(err) {
		return err
	}
	return nil
}

func encode(w io.Writer, listing *Listing) error {
	if err := gob.NewEncoder(w).Encode(listing); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func decode(r io.Reader, listing *Listing) error {
	if err := gob.NewDecoder(r).Decode(listing); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
