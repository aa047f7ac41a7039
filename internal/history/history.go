// Package history keeps a sqlite table of the requests made through
// resolved clients.
package history

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrEmptyTitle happens when recording an exchange without a model title.
var ErrEmptyTitle = errors.New("history: empty model title")

// DB is the request history.
type DB struct {
	db *sqlx.DB
}

// Entry is one recorded request.
type Entry struct {
	ID       int64
	Title    string
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Err      string
	Started  time.Time
}

type row struct {
	ID         int64  `db:"id"`
	Title      string `db:"title"`
	Method     string `db:"method"`
	URL        string `db:"url"`
	Status     int    `db:"status"`
	DurationMS int64  `db:"duration_ms"`
	Err        string `db:"error"`
	StartedAt  int64  `db:"started_at"`
}

func (r row) entry() Entry {
	return Entry{
		ID:       r.ID,
		Title:    r.Title,
		Method:   r.Method,
		URL:      r.URL,
		Status:   r.Status,
		Duration: time.Duration(r.DurationMS) * time.Millisecond,
		Err:      r.Err,
		Started:  time.UnixMilli(r.StartedAt),
	}
}

// Open opens the history database at path, creating it as needed.
// ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("could not create db: %w", err)
		}
		dsn = "file:" + path
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not create db: %w", err)
	}
	// a single connection keeps in-memory databases shared and serializes writes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not ping db: %w", err)
	}
	if _, err := db.Exec(`
		create table if not exists requests(
			id integer not null primary key autoincrement,
			title text not null,
			method text not null,
			url text not null,
			status integer not null default 0,
			duration_ms integer not null default 0,
			error text not null default '',
			started_at integer not null
		);
		create index if not exists idx_requests_title on requests(title);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not migrate db: %w", err)
	}
	return &DB{db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close() //nolint:wrapcheck
}

// Record stores ex. Query values and URL passwords are redacted, in the
// URL and in the error message alike.
func (d *DB) Record(ex fetch.Exchange) error {
	if ex.Title == "" {
		return ErrEmptyTitle
	}
	target := redact(ex.URL)
	var msg string
	if ex.Err != nil {
		msg = ex.Err.Error()
		if ex.URL != "" {
			msg = strings.ReplaceAll(msg, ex.URL, target)
		}
	}
	started := ex.Started
	if started.IsZero() {
		started = time.Now()
	}
	if _, err := d.db.Exec(`
		insert into requests (title, method, url, status, duration_ms, error, started_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, ex.Title, ex.Method, target, ex.Status, ex.Duration.Milliseconds(), msg, started.UnixMilli()); err != nil {
		return fmt.Errorf("could not record request: %w", err)
	}
	return nil
}

// redact hides the query values and the password of raw. Unparsable URLs
// lose everything after the path.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		base, _, _ := strings.Cut(raw, "?")
		return base
	}
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			q[key] = []string{"xxxxx"}
		}
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}

// List returns up to limit entries, newest first. An empty title lists
// every model; limit <= 0 lists everything.
func (d *DB) List(title string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []row
	if err := d.db.Select(&rows, `
		select * from requests
		where $1 = '' or title = $1
		order by started_at desc, id desc
		limit $2
	`, title, limit); err != nil {
		return nil, fmt.Errorf("could not list requests: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

// Clear deletes every entry, returning how many were removed.
func (d *DB) Clear() (int64, error) {
	res, err := d.db.Exec(`delete from requests`)
	if err != nil {
		return 0, fmt.Errorf("could not clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not clear history: %w", err)
	}
	return n, nil
}
