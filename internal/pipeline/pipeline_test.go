package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/everstacklabs/orcatalog/internal/cache"
	"github.com/everstacklabs/orcatalog/internal/catalog"
	"github.com/everstacklabs/orcatalog/internal/config"
	"github.com/everstacklabs/orcatalog/internal/httpclient"
)

type mockCache struct {
	entries []catalog.RawEntry
	hit     bool
	reads   int
	writes  [][]catalog.RawEntry
}

func (m *mockCache) Read() ([]catalog.RawEntry, bool) {
	m.reads++
	return m.entries, m.hit
}

func (m *mockCache) Write(models []catalog.RawEntry) {
	m.writes = append(m.writes, models)
}

type mockFetcher struct {
	entries []catalog.RawEntry
	err     error
	calls   int
}

func (m *mockFetcher) FetchCatalog(ctx context.Context) ([]catalog.RawEntry, error) {
	m.calls++
	return m.entries, m.err
}

func rawEntries(s ...string) []catalog.RawEntry {
	out := make([]catalog.RawEntry, len(s))
	for i, e := range s {
		out[i] = catalog.RawEntry(e)
	}
	return out
}

func TestRetrieveCacheHit(t *testing.T) {
	c := &mockCache{entries: rawEntries(`{"id":"cached"}`), hit: true}
	f := &mockFetcher{}
	r := NewRetriever(c, f)

	got, err := r.Retrieve(context.Background(), false)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if !got.FromCache || len(got.Entries) != 1 {
		t.Errorf("retrieval = %+v", got)
	}
	if f.calls != 0 {
		t.Errorf("fetcher called %d times on cache hit", f.calls)
	}
	if r.State() != StateDone {
		t.Errorf("state = %q, want done", r.State())
	}
}

func TestRetrieveMissFetchesOnceThenWrites(t *testing.T) {
	c := &mockCache{}
	f := &mockFetcher{entries: rawEntries(`{"id":"a"}`, `{"id":"b"}`)}
	r := NewRetriever(c, f)

	got, err := r.Retrieve(context.Background(), false)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if got.FromCache || len(got.Entries) != 2 {
		t.Errorf("retrieval = %+v", got)
	}
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}
	if len(c.writes) != 1 || len(c.writes[0]) != 2 {
		t.Errorf("cache writes = %v, want one write of 2 entries", c.writes)
	}
}

func TestRetrieveForceSkipsCache(t *testing.T) {
	c := &mockCache{entries: rawEntries(`{"id":"stale"}`), hit: true}
	f := &mockFetcher{entries: rawEntries(`{"id":"fresh"}`)}
	r := NewRetriever(c, f)

	got, err := r.Retrieve(context.Background(), true)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if c.reads != 0 {
		t.Errorf("cache read %d times on forced refresh", c.reads)
	}
	if got.FromCache || string(got.Entries[0]) != `{"id":"fresh"}` {
		t.Errorf("retrieval = %+v", got)
	}
	if len(c.writes) != 1 {
		t.Errorf("cache writes = %d, want 1", len(c.writes))
	}
}

func TestRetrieveFetchFailureLeavesCacheUntouched(t *testing.T) {
	c := &mockCache{}
	fetchErr := &httpclient.Error{Kind: httpclient.KindRateLimit, StatusCode: 429}
	f := &mockFetcher{err: fetchErr}
	r := NewRetriever(c, f)

	_, err := r.Retrieve(context.Background(), false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "could not obtain catalog data") {
		t.Errorf("error = %v", err)
	}
	if kind, _ := httpclient.KindOf(err); kind != httpclient.KindRateLimit {
		t.Errorf("kind = %q, want rate_limit", kind)
	}
	if len(c.writes) != 0 {
		t.Errorf("cache written %d times after failed fetch", len(c.writes))
	}
	if r.State() != StateFailed {
		t.Errorf("state = %q, want failed", r.State())
	}
}

func TestRetrieveWithFileCache(t *testing.T) {
	dir := t.TempDir()
	fc := cache.New(cache.NewFileStore(dir), time.Hour)
	f := &mockFetcher{entries: rawEntries(`{"id":"a"}`)}

	r := NewRetriever(fc, f)
	if _, err := r.Retrieve(context.Background(), false); err != nil {
		t.Fatalf("first Retrieve failed: %v", err)
	}
	got, err := r.Retrieve(context.Background(), false)
	if err != nil {
		t.Fatalf("second Retrieve failed: %v", err)
	}
	if !got.FromCache || f.calls != 1 {
		t.Errorf("from cache = %v, fetch calls = %d; want cached with 1 fetch", got.FromCache, f.calls)
	}

	f.err = errors.New("network down")
	if _, err := r.Retrieve(context.Background(), true); err == nil {
		t.Fatal("expected error on forced refresh with failing fetcher")
	}
	if !fc.IsValid() {
		t.Error("cache should still hold the earlier snapshot")
	}
}

type mockPublisher struct {
	files []string
}

func (m *mockPublisher) Publish(ctx context.Context, file string) (*PublishResult, error) {
	m.files = append(m.files, file)
	return &PublishResult{Branch: "orcatalog/test"}, nil
}

func TestRunWritesFilteredOutput(t *testing.T) {
	f := &mockFetcher{entries: rawEntries(
		`{"id": "b/model", "tags": ["free"]}`,
		`{"id": "a/model", "tags": ["chat"], "context_length": 4096}`,
	)}
	pub := &mockPublisher{}
	p := New(&config.Config{}, NewRetriever(&mockCache{}, f), WithPublisher(pub))

	out := filepath.Join(t.TempDir(), "out", "models.csv")
	res, err := p.Run(context.Background(), RunOptions{
		Format:  "csv",
		Output:  out,
		Filter:  catalog.FilterOptions{Tags: []string{"free"}},
		Publish: true,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.TotalModels != 2 || len(res.Models) != 1 || res.Models[0].ID != "b/model" {
		t.Errorf("result = total %d, models %v", res.TotalModels, res.Models)
	}
	if res.Stats.TotalModels != 1 || res.Stats.MaxContextLength != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), "b/model") || strings.Contains(string(data), "a/model") {
		t.Errorf("output = %s", data)
	}
	if len(pub.files) != 1 || pub.files[0] != out || res.Published == nil {
		t.Errorf("published = %v", pub.files)
	}
}

func TestRunDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	f := &mockFetcher{entries: rawEntries(`{"id": "x"}`)}
	p := New(&config.Config{}, NewRetriever(&mockCache{}, f))

	res, err := p.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.OutputPath != "or_models.md" {
		t.Errorf("output = %q, want or_models.md", res.OutputPath)
	}
	if _, err := os.Stat(filepath.Join(dir, "or_models.md")); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	f := &mockFetcher{}
	p := New(&config.Config{}, NewRetriever(&mockCache{}, f))

	if _, err := p.Run(context.Background(), RunOptions{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if f.calls != 0 {
		t.Error("catalog fetched before format was validated")
	}
}

func TestRunOutputWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, []byte("x"), 0o644)

	p := New(&config.Config{}, NewRetriever(&mockCache{}, &mockFetcher{entries: rawEntries(`{"id":"x"}`)}))
	if _, err := p.Run(context.Background(), RunOptions{Format: "json", Output: filepath.Join(blocker, "out.json")}); err == nil {
		t.Fatal("expected error when output cannot be written")
	}
}
