package discovery

import (
	"context"
	"fmt"
	"time"

	"LinkSearch/internal/models"
	"LinkSearch/internal/scraper"
	errs "LinkSearch/pkg/errors"
	"LinkSearch/pkg/logger"
)

// Store is where discovered links are recorded.
type Store interface {
	Upsert(ctx context.Context, date, brand string, links []models.DiscoveredLink) (models.UpsertStats, error)
}

// Orchestrator runs every (brand, product type) search on one driver and records the
// results. A failing attempt never stops the ones after it.
type Orchestrator struct {
	Registry scraper.Registry
	Driver   scraper.Driver
	Store    Store
	// Now picks the partition date. Defaults to time.Now.
	Now func() time.Time

	log *logger.Logger
}

// New returns an orchestrator over the given collaborators.
func New(registry scraper.Registry, driver scraper.Driver, store Store) *Orchestrator {
	return &Orchestrator{
		Registry: registry,
		Driver:   driver,
		Store:    store,
		Now:      time.Now,
		log:      logger.ForComponent("discovery"),
	}
}

// Run searches each brand for each product type, in the order given. Brands without
// an adapter or a website are skipped with a warning. It returns once every pair has
// been attempted, or early if ctx is cancelled between attempts.
func (o *Orchestrator) Run(ctx context.Context, brands []models.Brand, productTypes []models.ProductType) Report {
	var report Report

	for _, brand := range brands {
		log := o.log.WithField("brand", brand.Name)

		adapter, ok := o.Registry.Lookup(brand.Name)
		if !ok {
			err := errs.NewConfiguration(brand.Name, "no adapter registered")
			log.Warn().Err(err).Msg("Skipping brand")
			report.SkippedBrands = append(report.SkippedBrands, brand.Name)
			continue
		}
		if brand.Website == "" {
			err := errs.NewConfiguration(brand.Name, "brand has no website")
			log.Warn().Err(err).Msg("Skipping brand")
			report.SkippedBrands = append(report.SkippedBrands, brand.Name)
			continue
		}

		log.Info().Str("website", brand.Website).Msg("Starting search on brand website")
		for _, pt := range productTypes {
			if ctx.Err() != nil {
				log.Warn().Err(ctx.Err()).Msg("Run interrupted")
				return report
			}
			if pt.Label == "" {
				log.Warn().Str("product_type_id", pt.ID).Msg("Skipping product type without label")
				continue
			}
			report.add(o.attempt(ctx, adapter, brand, pt))
		}
	}

	o.log.Info().
		Int("attempted", len(report.Attempts)).
		Int("failed", report.Failed()).
		Int("skipped_brands", len(report.SkippedBrands)).
		Int("inserted", report.Stats.Inserted).
		Int("updated", report.Stats.Updated).
		Int("unchanged", report.Stats.Unchanged).
		Msg("Discovery run finished")
	return report
}

func (o *Orchestrator) attempt(ctx context.Context, adapter scraper.Adapter, brand models.Brand, pt models.ProductType) (a Attempt) {
	a = Attempt{Brand: brand.Name, ProductType: pt.Label}
	log := o.log.WithFields(logger.Fields{"brand": brand.Name, "product_type": pt.Label})

	defer func() {
		if r := recover(); r != nil {
			a.Err = errs.NewAttempt(brand.Name, "", fmt.Sprintf("panic: %v", r), nil)
			log.Error().Err(a.Err).Msg("Search attempt failed")
		}
	}()

	log.Info().Msg("Searching")
	res, err := adapter.Search(ctx, o.Driver, brand.Website, pt.Label)
	if err != nil {
		a.Err = err
		log.Error().Err(err).Msg("Search attempt failed")
		return a
	}

	a.Items = res.Items
	a.Links = len(res.Links)
	a.Skipped = res.Skipped
	if res.Partial() {
		log.Warn().Int("skipped", res.Skipped).Int("items", res.Items).Msg("Some results could not be read")
	}
	if len(res.Links) == 0 {
		log.Info().Int("items", res.Items).Msg("No product links found")
		return a
	}

	date := o.now().Format(models.PartitionDateLayout)
	a.Stats, err = o.Store.Upsert(ctx, date, brand.Name, res.Links)
	if err != nil {
		a.Err = errs.NewAttempt(brand.Name, "store", "could not record links", err)
		log.Error().Err(a.Err).Msg("Search attempt failed")
	}
	return a
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}
