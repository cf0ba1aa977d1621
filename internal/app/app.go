package app

import (
	"context"
	"errors"
	"sync"

	"LinkSearch/internal/browser"
	"LinkSearch/internal/database"
	"LinkSearch/internal/discovery"
	"LinkSearch/internal/models"
	"LinkSearch/internal/scraper"
	"LinkSearch/internal/seed"
	"LinkSearch/pkg/config"
	errs "LinkSearch/pkg/errors"
	"LinkSearch/pkg/logger"
	"LinkSearch/utils"
)

// Catalog is a partition store the application can write to and read back.
type Catalog interface {
	discovery.Store
	Partition(ctx context.Context, date, brand string) (map[string]string, error)
	PartitionBrands(ctx context.Context, date string) ([]string, error)
	Close() error
}

// Session is a browser a discovery worker drives. *browser.Session implements it.
type Session interface {
	scraper.Driver
	Close() error
}

// SessionOpener starts a browser session.
type SessionOpener func(ctx context.Context, opts browser.Options) (Session, error)

// App is the main application structure holding all dependencies.
type App struct {
	Config   *config.Config
	Repo     *database.DBRepository
	Catalog  Catalog
	Registry scraper.Registry

	// OpenSession is replaced in tests.
	OpenSession SessionOpener

	log *logger.Logger
}

// New loads the configuration and opens the stores. Any failure here is fatal.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errs.NewFatal("could not load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errs.NewFatal("invalid configuration", err)
	}

	repo, err := database.InitDB(cfg.Store.Path)
	if err != nil {
		return nil, errs.NewFatal("could not open database", err)
	}

	var catalog Catalog = repo
	if cfg.Store.Catalog == "redis" {
		rc, err := database.NewRedisCatalog(ctx, cfg.Store.Redis.Addr, cfg.Store.Redis.DB, cfg.Store.Redis.Prefix)
		if err != nil {
			repo.Close()
			return nil, errs.NewFatal("could not connect to redis catalog", err)
		}
		catalog = rc
	}

	return NewWith(cfg, repo, catalog), nil
}

// NewWith assembles an App from already opened stores.
func NewWith(cfg *config.Config, repo *database.DBRepository, catalog Catalog) *App {
	return &App{
		Config:      cfg,
		Repo:        repo,
		Catalog:     catalog,
		Registry:    scraper.DefaultRegistry(scraper.NewPacer(cfg.Scraper.PaceRange())),
		OpenSession: openBrowser,
		log:         logger.ForComponent("app"),
	}
}

func openBrowser(ctx context.Context, opts browser.Options) (Session, error) {
	return browser.Open(ctx, opts)
}

// Close releases the stores.
func (a *App) Close() error {
	var err error
	if a.Catalog != nil && a.Catalog != Catalog(a.Repo) {
		err = a.Catalog.Close()
	}
	if a.Repo != nil {
		err = errors.Join(err, a.Repo.Close())
	}
	return err
}

func (a *App) browserOptions() browser.Options {
	s := a.Config.Scraper
	return browser.Options{
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
		Headless:       s.Headless,
		IsolateProfile: s.Incognito,
		NoSandbox:      s.NoSandbox,
		Stealth:        s.Stealth,
	}
}

// RunDiscovery searches every brand for every product type and records the links.
// It returns an error only when reference data cannot be read or no browser session
// can be opened; attempt failures are reported in the Report.
func (a *App) RunDiscovery(ctx context.Context) (discovery.Report, error) {
	a.log.Info().Msg("--- Starting Link Discovery Task ---")

	brands, err := a.Repo.Brands(ctx)
	if err != nil {
		return discovery.Report{}, errs.NewFatal("could not load brands", err)
	}
	productTypes, err := a.Repo.ProductTypes(ctx)
	if err != nil {
		return discovery.Report{}, errs.NewFatal("could not load product types", err)
	}
	if len(brands) == 0 || len(productTypes) == 0 {
		a.log.Warn().Int("brands", len(brands)).Int("product_types", len(productTypes)).
			Msg("Nothing to search. Task finished.")
		return discovery.Report{}, nil
	}
	a.log.Info().Int("brands", len(brands)).Int("product_types", len(productTypes)).Msg("Reference data loaded")

	workers := utils.GetOptimalWorkerCount(a.Config.Scraper.Workers)
	if workers > len(brands) {
		workers = len(brands)
	}

	var report discovery.Report
	if workers <= 1 {
		report, err = a.runWorker(ctx, brands, productTypes)
	} else {
		report, err = a.runParallel(ctx, workers, brands, productTypes)
	}
	if err != nil {
		return report, err
	}

	a.log.Info().
		Int("attempted", len(report.Attempts)).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Int("links_inserted", report.Stats.Inserted).
		Int("links_updated", report.Stats.Updated).
		Msg("--- Link Discovery Task Finished ---")
	return report, nil
}

// runWorker opens one session and runs brands through it. The session is closed on
// every return path.
func (a *App) runWorker(ctx context.Context, brands []models.Brand, productTypes []models.ProductType) (discovery.Report, error) {
	sess, err := a.OpenSession(ctx, a.browserOptions())
	if err != nil {
		return discovery.Report{}, errs.NewFatal("could not open browser session", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Browser session did not close cleanly")
		}
	}()

	o := discovery.New(a.Registry, sess, a.Catalog)
	return o.Run(ctx, brands, productTypes), nil
}

// runParallel hands brands to workers, each owning its own session. A brand is only
// ever searched by one worker, so partitions never see concurrent writers.
func (a *App) runParallel(ctx context.Context, workers int, brands []models.Brand, productTypes []models.ProductType) (discovery.Report, error) {
	a.log.Info().Int("workers", workers).Msg("Searching brands in parallel")

	jobs := make(chan models.Brand, len(brands))
	for _, b := range brands {
		jobs <- b
	}
	close(jobs)

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		report     discovery.Report
		openErrs   []error
		processing int
	)

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log := a.log.WithField("worker", workerID)

			sess, err := a.OpenSession(ctx, a.browserOptions())
			if err != nil {
				log.Error().Err(err).Msg("Could not open browser session")
				mu.Lock()
				openErrs = append(openErrs, err)
				mu.Unlock()
				return
			}
			defer func() {
				if err := sess.Close(); err != nil {
					log.Warn().Err(err).Msg("Browser session did not close cleanly")
				}
			}()

			mu.Lock()
			processing++
			mu.Unlock()

			o := discovery.New(a.Registry, sess, a.Catalog)
			for brand := range jobs {
				r := o.Run(ctx, []models.Brand{brand}, productTypes)
				mu.Lock()
				report.Merge(r)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if processing == 0 {
		return report, errs.NewFatal("could not open any browser session", errors.Join(openErrs...))
	}
	return report, nil
}

// RunSeedBrands imports the brands file named in the configuration.
func (a *App) RunSeedBrands(ctx context.Context) (seed.Summary, error) {
	return a.runSeed(a.Config.Seed.BrandsPath, func() (seed.Summary, error) {
		return seed.BrandsFromFile(ctx, a.Repo, a.Config.Seed.BrandsPath)
	})
}

// RunSeedProductTypes imports the product types file named in the configuration.
func (a *App) RunSeedProductTypes(ctx context.Context) (seed.Summary, error) {
	return a.runSeed(a.Config.Seed.ProductTypesPath, func() (seed.Summary, error) {
		return seed.ProductTypesFromFile(ctx, a.Repo, a.Config.Seed.ProductTypesPath)
	})
}

func (a *App) runSeed(path string, run func() (seed.Summary, error)) (seed.Summary, error) {
	a.log.Info().Str("file", path).Msg("--- Starting Seed Task ---")
	sum, err := run()
	if err != nil {
		return sum, errs.NewFatal("could not import "+path, err)
	}
	a.log.Info().
		Int("inserted", sum.Inserted).
		Int("updated", sum.Updated).
		Int("unchanged", sum.Unchanged).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("--- Seed Task Finished ---")
	return sum, nil
}
