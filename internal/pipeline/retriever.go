package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/everstacklabs/orcatalog/internal/catalog"
)

// State is the retriever's progress through one retrieval.
type State string

const (
	StateIdle          State = "idle"
	StateCheckingCache State = "checking-cache"
	StateFetching      State = "fetching"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// CatalogCache is the snapshot store consulted before fetching.
type CatalogCache interface {
	Read() ([]catalog.RawEntry, bool)
	Write(models []catalog.RawEntry)
}

// Fetcher retrieves the full catalog from upstream.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]catalog.RawEntry, error)
}

// Retrieval is the outcome of a successful Retrieve.
type Retrieval struct {
	Entries   []catalog.RawEntry
	FromCache bool
}

// Retriever serves the catalog from cache when fresh and fetches otherwise.
// Retries belong to the fetcher.
type Retriever struct {
	cache   CatalogCache
	fetcher Fetcher
	state   State
}

// NewRetriever creates a Retriever.
func NewRetriever(cache CatalogCache, fetcher Fetcher) *Retriever {
	return &Retriever{cache: cache, fetcher: fetcher, state: StateIdle}
}

// State reports where the last Retrieve got to.
func (r *Retriever) State() State {
	return r.state
}

// Retrieve returns raw catalog entries. With force set the cache is not
// read. A successful fetch replaces the cache; a failed one leaves it alone.
func (r *Retriever) Retrieve(ctx context.Context, force bool) (*Retrieval, error) {
	if !force {
		r.state = StateCheckingCache
		if entries, ok := r.cache.Read(); ok {
			r.state = StateDone
			return &Retrieval{Entries: entries, FromCache: true}, nil
		}
	} else {
		slog.Info("cache bypassed by force refresh")
	}

	r.state = StateFetching
	entries, err := r.fetcher.FetchCatalog(ctx)
	if err != nil {
		r.state = StateFailed
		return nil, fmt.Errorf("could not obtain catalog data: %w", err)
	}

	r.cache.Write(entries)
	r.state = StateDone
	return &Retrieval{Entries: entries}, nil
}
