package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"LinkSearch/internal/browser"
	"LinkSearch/internal/database"
	"LinkSearch/internal/models"
	"LinkSearch/internal/scraper"
	"LinkSearch/pkg/config"
	errs "LinkSearch/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error { return nil }
func (s *fakeSession) WaitUntilClickable(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	return browser.Lookup{Status: browser.Timeout}
}
func (s *fakeSession) WaitUntilPresent(ctx context.Context, loc browser.Locator, timeout time.Duration) browser.Lookup {
	return browser.Lookup{Status: browser.Timeout}
}
func (s *fakeSession) HTML(ctx context.Context) (string, error) { return "", nil }
func (s *fakeSession) URL() string                              { return "" }
func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// linkAdapter returns one link per query, derived from the website.
type linkAdapter struct {
	mu      sync.Mutex
	queries []string
	failOn  string
}

func (a *linkAdapter) Search(ctx context.Context, d scraper.Driver, website, query string) (scraper.Result, error) {
	a.mu.Lock()
	a.queries = append(a.queries, query)
	a.mu.Unlock()
	if query == a.failOn {
		return scraper.Result{}, errors.New("search box missing")
	}
	return scraper.Result{
		Links: []models.DiscoveredLink{{ID: query, Link: website + "/" + query}},
		Items: 1,
	}, nil
}

type harness struct {
	app      *App
	repo     *database.DBRepository
	sessions []*fakeSession
	mu       sync.Mutex
}

func newHarness(t *testing.T, workers string) *harness {
	t.Helper()
	repo, err := database.InitDB(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Scraper.Workers = workers
	h := &harness{repo: repo}
	h.app = NewWith(cfg, repo, repo)
	h.app.OpenSession = func(ctx context.Context, opts browser.Options) (Session, error) {
		assert.Equal(t, 1920, opts.ViewportWidth)
		assert.True(t, opts.IsolateProfile)
		s := &fakeSession{}
		h.mu.Lock()
		h.sessions = append(h.sessions, s)
		h.mu.Unlock()
		return s, nil
	}
	t.Cleanup(func() { h.app.Close() })
	return h
}

func (h *harness) seed(t *testing.T, brands []models.Brand, types []models.ProductType) {
	t.Helper()
	ctx := context.Background()
	for _, b := range brands {
		_, err := h.repo.SaveBrand(ctx, b)
		require.NoError(t, err)
	}
	for _, pt := range types {
		_, err := h.repo.SaveProductType(ctx, pt)
		require.NoError(t, err)
	}
}

func TestRunDiscoverySequential(t *testing.T) {
	h := newHarness(t, "1")
	h.seed(t,
		[]models.Brand{{ID: "b1", Name: "Prozis", Website: "https://prozis.test"}, {ID: "b2", Name: "Unknown", Website: "https://u.test"}},
		[]models.ProductType{{ID: "p1", Label: "whey"}, {ID: "p2", Label: "creatine"}},
	)
	prozis := &linkAdapter{failOn: "whey"}
	h.app.Registry = scraper.Registry{"Prozis": prozis}

	report, err := h.app.RunDiscovery(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"whey", "creatine"}, prozis.queries)
	assert.Equal(t, []string{"Unknown"}, report.SkippedBrands)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.Succeeded())

	require.Len(t, h.sessions, 1)
	assert.Equal(t, 1, h.sessions[0].closed)

	today := time.Now().Format(models.PartitionDateLayout)
	partition, err := h.repo.Partition(context.Background(), today, "Prozis")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"creatine": "https://prozis.test/creatine"}, partition)
}

func TestRunDiscoveryParallel(t *testing.T) {
	h := newHarness(t, "2")
	h.seed(t,
		[]models.Brand{
			{ID: "b1", Name: "Prozis", Website: "https://prozis.test"},
			{ID: "b2", Name: "MyProtein", Website: "https://myprotein.test"},
			{ID: "b3", Name: "Zumub", Website: "https://zumub.test"},
		},
		[]models.ProductType{{ID: "p1", Label: "whey"}},
	)
	adapter := &linkAdapter{}
	h.app.Registry = scraper.Registry{"Prozis": adapter, "MyProtein": adapter, "Zumub": adapter}

	report, err := h.app.RunDiscovery(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Attempts, 3)
	assert.Equal(t, models.UpsertStats{Inserted: 3}, report.Stats)
	require.Len(t, h.sessions, 2)
	for _, s := range h.sessions {
		assert.Equal(t, 1, s.closed)
	}
}

func TestRunDiscoverySessionFailureIsFatal(t *testing.T) {
	h := newHarness(t, "1")
	h.seed(t,
		[]models.Brand{{ID: "b1", Name: "Prozis", Website: "https://prozis.test"}},
		[]models.ProductType{{ID: "p1", Label: "whey"}},
	)
	h.app.OpenSession = func(ctx context.Context, opts browser.Options) (Session, error) {
		return nil, errors.New("chrome not found")
	}

	_, err := h.app.RunDiscovery(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeFatal, errs.TypeOf(err))
}

func TestRunDiscoveryWithoutReferenceData(t *testing.T) {
	h := newHarness(t, "1")

	report, err := h.app.RunDiscovery(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Attempts)
	assert.Empty(t, h.sessions)
}

func TestRunSeedTasks(t *testing.T) {
	h := newHarness(t, "1")
	dir := t.TempDir()
	h.app.Config.Seed.BrandsPath = filepath.Join(dir, "brands.json")
	h.app.Config.Seed.ProductTypesPath = filepath.Join(dir, "product_types.json")
	require.NoError(t, os.WriteFile(h.app.Config.Seed.BrandsPath,
		[]byte(`[{"id": "b1", "name": "Prozis", "website": "https://prozis.test"}]`), 0o644))

	sum, err := h.app.RunSeedBrands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)

	_, err = h.app.RunSeedProductTypes(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeFatal, errs.TypeOf(err))
}
