package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"LinkSearch/internal/browser"
	"LinkSearch/internal/database"
	"LinkSearch/internal/models"
	"LinkSearch/internal/scraper"
	errs "LinkSearch/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	website string
	query   string
}

// stubAdapter answers each query from a table. Queries in fail return an error and
// queries in panics panic.
type stubAdapter struct {
	mu      sync.Mutex
	results map[string][]models.DiscoveredLink
	fail    map[string]bool
	panics  map[string]bool
	calls   []call
}

func (a *stubAdapter) Search(ctx context.Context, d scraper.Driver, website, query string) (scraper.Result, error) {
	a.mu.Lock()
	a.calls = append(a.calls, call{website: website, query: query})
	a.mu.Unlock()

	if a.panics[query] {
		panic("element went stale")
	}
	if a.fail[query] {
		return scraper.Result{}, errs.NewAttempt("stub", "search", "search could not be submitted", errors.New("boom"))
	}
	links := a.results[query]
	return scraper.Result{Links: links, Items: len(links)}, nil
}

type memStore struct {
	err   error
	calls []models.PartitionKey
	links map[models.PartitionKey]map[string]string
}

func (s *memStore) Upsert(ctx context.Context, date, brand string, links []models.DiscoveredLink) (models.UpsertStats, error) {
	if s.err != nil {
		return models.UpsertStats{}, s.err
	}
	key := models.PartitionKey{Date: date, Brand: brand}
	s.calls = append(s.calls, key)
	if s.links == nil {
		s.links = make(map[models.PartitionKey]map[string]string)
	}
	if s.links[key] == nil {
		s.links[key] = make(map[string]string)
	}
	var stats models.UpsertStats
	for _, l := range links {
		switch existing, ok := s.links[key][l.ID]; {
		case !ok:
			stats.Inserted++
		case existing == l.Link:
			stats.Unchanged++
			continue
		default:
			stats.Updated++
		}
		s.links[key][l.ID] = l.Link
	}
	return stats, nil
}

// nopDriver is never touched by the stub adapters.
type nopDriver struct{}

func (nopDriver) Navigate(ctx context.Context, url string) error { return nil }
func (nopDriver) WaitUntilClickable(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	return browser.Lookup{Status: browser.NotFound}
}
func (nopDriver) WaitUntilPresent(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	return browser.Lookup{Status: browser.NotFound}
}
func (nopDriver) HTML(ctx context.Context) (string, error) { return "", nil }
func (nopDriver) URL() string                              { return "" }

var fixedNow = func() time.Time {
	return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
}

func newOrchestrator(registry scraper.Registry, store Store) *Orchestrator {
	o := New(registry, nopDriver{}, store)
	o.Now = fixedNow
	return o
}

func TestRunIsolatesFailedAttempts(t *testing.T) {
	a := &stubAdapter{
		results: map[string][]models.DiscoveredLink{
			"creatine": {{ID: "1", Link: "https://a.test/1"}},
		},
		fail: map[string]bool{"whey": true},
	}
	b := &stubAdapter{
		results: map[string][]models.DiscoveredLink{
			"whey": {{ID: "2", Link: "https://b.test/2"}},
		},
	}
	store := &memStore{}
	o := newOrchestrator(scraper.Registry{"A": a, "B": b}, store)

	report := o.Run(context.Background(),
		[]models.Brand{{ID: "1", Name: "A", Website: "https://a.test"}, {ID: "2", Name: "B", Website: "https://b.test"}},
		[]models.ProductType{{ID: "1", Label: "whey"}, {ID: "2", Label: "creatine"}},
	)

	assert.Equal(t, []call{{"https://a.test", "whey"}, {"https://a.test", "creatine"}}, a.calls)
	assert.Equal(t, []call{{"https://b.test", "whey"}, {"https://b.test", "creatine"}}, b.calls)

	require.Len(t, report.Attempts, 4)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 3, report.Succeeded())
	assert.Equal(t, errs.ErrorTypeAttempt, errs.TypeOf(report.Attempts[0].Err))
	assert.Equal(t, models.UpsertStats{Inserted: 2}, report.Stats)

	assert.Equal(t, map[string]string{"1": "https://a.test/1"}, store.links[models.PartitionKey{Date: "2026-10-15", Brand: "A"}])
	assert.Equal(t, map[string]string{"2": "https://b.test/2"}, store.links[models.PartitionKey{Date: "2026-10-15", Brand: "B"}])
}

func TestRunRecoversFromPanickingAdapter(t *testing.T) {
	a := &stubAdapter{
		panics:  map[string]bool{"whey": true},
		results: map[string][]models.DiscoveredLink{"creatine": {{ID: "1", Link: "https://a.test/1"}}},
	}
	o := newOrchestrator(scraper.Registry{"A": a}, &memStore{})

	report := o.Run(context.Background(),
		[]models.Brand{{ID: "1", Name: "A", Website: "https://a.test"}},
		[]models.ProductType{{ID: "1", Label: "whey"}, {ID: "2", Label: "creatine"}},
	)

	require.Len(t, report.Attempts, 2)
	require.Error(t, report.Attempts[0].Err)
	assert.Contains(t, report.Attempts[0].Err.Error(), "element went stale")
	assert.NoError(t, report.Attempts[1].Err)
	assert.Equal(t, 1, report.Attempts[1].Links)
}

func TestRunSkipsBrandsWithoutAdapterOrWebsite(t *testing.T) {
	a := &stubAdapter{}
	o := newOrchestrator(scraper.Registry{"A": a, "NoSite": a}, &memStore{})

	report := o.Run(context.Background(),
		[]models.Brand{
			{ID: "1", Name: "Unknown", Website: "https://unknown.test"},
			{ID: "2", Name: "NoSite"},
			{ID: "3", Name: "A", Website: "https://a.test"},
		},
		[]models.ProductType{{ID: "1", Label: "whey"}},
	)

	assert.Equal(t, []string{"Unknown", "NoSite"}, report.SkippedBrands)
	assert.Equal(t, []call{{"https://a.test", "whey"}}, a.calls)
	require.Len(t, report.Attempts, 1)
}

func TestRunSkipsUpsertForEmptyResults(t *testing.T) {
	store := &memStore{}
	o := newOrchestrator(scraper.Registry{"A": &stubAdapter{}}, store)

	report := o.Run(context.Background(),
		[]models.Brand{{ID: "1", Name: "A", Website: "https://a.test"}},
		[]models.ProductType{{ID: "1", Label: "whey"}},
	)

	assert.Empty(t, store.calls)
	require.Len(t, report.Attempts, 1)
	assert.NoError(t, report.Attempts[0].Err)
	assert.Equal(t, 0, report.Attempts[0].Links)
}

func TestRunStoreFailureIsAttemptLevel(t *testing.T) {
	a := &stubAdapter{results: map[string][]models.DiscoveredLink{
		"whey":     {{ID: "1", Link: "https://a.test/1"}},
		"creatine": {{ID: "2", Link: "https://a.test/2"}},
	}}
	o := newOrchestrator(scraper.Registry{"A": a}, &memStore{err: errors.New("disk full")})

	report := o.Run(context.Background(),
		[]models.Brand{{ID: "1", Name: "A", Website: "https://a.test"}},
		[]models.ProductType{{ID: "1", Label: "whey"}, {ID: "2", Label: "creatine"}},
	)

	assert.Len(t, a.calls, 2)
	assert.Equal(t, 2, report.Failed())
	var se *errs.SearchError
	require.ErrorAs(t, report.Attempts[0].Err, &se)
	assert.Equal(t, "store", se.Step)
}

func TestRunStopsBetweenAttemptsWhenCancelled(t *testing.T) {
	a := &stubAdapter{}
	o := newOrchestrator(scraper.Registry{"A": a}, &memStore{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := o.Run(ctx,
		[]models.Brand{{ID: "1", Name: "A", Website: "https://a.test"}},
		[]models.ProductType{{ID: "1", Label: "whey"}},
	)

	assert.Empty(t, a.calls)
	assert.Empty(t, report.Attempts)
}

func TestRunProzisEndToEnd(t *testing.T) {
	repo, err := database.InitDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	brands := []models.Brand{{ID: "b1", Name: "Prozis", Website: "https://prozis.test"}}
	productTypes := []models.ProductType{{ID: "p1", Label: "whey"}}

	prozis := &stubAdapter{results: map[string][]models.DiscoveredLink{
		"whey": {{ID: "123", Link: "https://prozis.test/123"}},
	}}
	o := newOrchestrator(scraper.Registry{"Prozis": prozis}, repo)

	report := o.Run(ctx, brands, productTypes)
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, models.UpsertStats{Inserted: 1}, report.Stats)

	partition, err := repo.Partition(ctx, "2026-10-15", "Prozis")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"123": "https://prozis.test/123"}, partition)

	report = o.Run(ctx, brands, productTypes)
	assert.Equal(t, models.UpsertStats{Unchanged: 1}, report.Stats)

	prozis.results["whey"] = []models.DiscoveredLink{{ID: "123", Link: "https://prozis.test/123-renamed"}}
	report = o.Run(ctx, brands, productTypes)
	assert.Equal(t, models.UpsertStats{Updated: 1}, report.Stats)

	partition, err = repo.Partition(ctx, "2026-10-15", "Prozis")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"123": "https://prozis.test/123-renamed"}, partition)
}

func TestReportMerge(t *testing.T) {
	var r Report
	r.Merge(Report{
		Attempts:      []Attempt{{Brand: "A", Stats: models.UpsertStats{Inserted: 2}}},
		SkippedBrands: []string{"X"},
	})
	r.Merge(Report{
		Attempts: []Attempt{{Brand: "B", Err: errors.New("boom"), Stats: models.UpsertStats{Unchanged: 1}}},
	})

	assert.Len(t, r.Attempts, 2)
	assert.Equal(t, []string{"X"}, r.SkippedBrands)
	assert.Equal(t, models.UpsertStats{Inserted: 2, Unchanged: 1}, r.Stats)
	assert.Equal(t, 1, r.Failed())
	assert.Equal(t, 1, r.Succeeded())
}
