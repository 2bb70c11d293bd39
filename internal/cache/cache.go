package cache

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/everstacklabs/orcatalog/internal/catalog"
)

// Timestamps written by older releases carry no zone and are read as local
// time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// snapshot is the persisted form of one catalog fetch.
type snapshot struct {
	Timestamp *string             `json:"timestamp"`
	Models    *[]catalog.RawEntry `json:"models"`
}

// Cache serves the last fetched catalog while it is younger than its TTL.
// Any unreadable or stale snapshot is a miss, never an error.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures the Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache over store with the given time-to-live.
func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status describes the cached snapshot for diagnostics.
type Status struct {
	Location string
	Exists   bool
	Valid    bool
	Age      time.Duration
	Models   int
}

// Read returns the cached entries if the snapshot is present, well-formed
// and no older than the TTL. An empty model list is a valid hit.
func (c *Cache) Read() ([]catalog.RawEntry, bool) {
	snap, cachedAt, ok := c.load()
	if !ok {
		return nil, false
	}

	// A snapshot from the future (clock set back) counts as fresh.
	age := c.now().Sub(cachedAt)
	if age > c.ttl {
		slog.Info("cache expired", "age", age.Round(time.Second), "ttl", c.ttl)
		return nil, false
	}

	slog.Info("using cached models", "models", len(*snap.Models), "age", age.Round(time.Second))
	return *snap.Models, true
}

// Write replaces the snapshot. Failures are logged, never returned.
func (c *Cache) Write(models []catalog.RawEntry) {
	if models == nil {
		models = []catalog.RawEntry{}
	}
	ts := c.now().Format(time.RFC3339Nano)
	data, err := sonic.Marshal(snapshot{Timestamp: &ts, Models: &models})
	if err != nil {
		slog.Warn("encoding cache snapshot failed", "error", err)
		return
	}
	if err := c.store.Save(data); err != nil {
		slog.Warn("writing cache failed", "location", c.store.Location(), "error", err)
		return
	}
	slog.Info("cached models", "models", len(models), "location", c.store.Location())
}

// Clear removes the snapshot. Clearing an empty cache is a no-op.
func (c *Cache) Clear() error {
	if err := c.store.Remove(); err != nil {
		return err
	}
	slog.Info("cache cleared", "location", c.store.Location())
	return nil
}

// IsValid reports whether Read would hit.
func (c *Cache) IsValid() bool {
	_, ok := c.Read()
	return ok
}

// Status inspects the snapshot without treating problems as errors.
func (c *Cache) Status() Status {
	st := Status{Location: c.store.Location()}
	snap, cachedAt, ok := c.load()
	if !ok {
		_, err := c.store.Load()
		st.Exists = err == nil
		return st
	}
	st.Exists = true
	st.Age = c.now().Sub(cachedAt)
	st.Valid = st.Age <= c.ttl
	st.Models = len(*snap.Models)
	return st
}

func (c *Cache) load() (snapshot, time.Time, bool) {
	data, err := c.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("reading cache failed", "location", c.store.Location(), "error", err)
		}
		return snapshot{}, time.Time{}, false
	}

	var snap snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		slog.Warn("cache is corrupt, ignoring", "location", c.store.Location(), "error", err)
		return snapshot{}, time.Time{}, false
	}
	if snap.Timestamp == nil || snap.Models == nil {
		slog.Warn("cache snapshot incomplete, ignoring", "location", c.store.Location())
		return snapshot{}, time.Time{}, false
	}

	cachedAt, err := parseTimestamp(*snap.Timestamp)
	if err != nil {
		slog.Warn("cache timestamp invalid, ignoring", "timestamp", *snap.Timestamp, "error", err)
		return snapshot{}, time.Time{}, false
	}
	return snap, cachedAt, true
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
