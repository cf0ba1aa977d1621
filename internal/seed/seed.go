// Package seed imports reference data from JSON files into the database.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"LinkSearch/internal/models"
	"LinkSearch/pkg/logger"
)

// BrandWriter stores brands with diff-before-write semantics.
type BrandWriter interface {
	SaveBrand(ctx context.Context, b models.Brand) (models.UpsertStats, error)
}

// ProductTypeWriter stores product types with diff-before-write semantics.
type ProductTypeWriter interface {
	SaveProductType(ctx context.Context, pt models.ProductType) (models.UpsertStats, error)
}

// Summary counts what an import did.
type Summary struct {
	models.UpsertStats
	Skipped int
	Failed  int
}

// ReadBrands decodes a JSON array of brands.
func ReadBrands(r io.Reader) ([]models.Brand, error) {
	var brands []models.Brand
	if err := json.NewDecoder(r).Decode(&brands); err != nil {
		return nil, fmt.Errorf("decode brands: %w", err)
	}
	return brands, nil
}

// ReadProductTypes decodes a JSON array of product types.
func ReadProductTypes(r io.Reader) ([]models.ProductType, error) {
	var types []models.ProductType
	if err := json.NewDecoder(r).Decode(&types); err != nil {
		return nil, fmt.Errorf("decode product types: %w", err)
	}
	return types, nil
}

// ImportBrands saves every brand that has an id. Entries without one are skipped, and
// a failing entry does not stop the rest.
func ImportBrands(ctx context.Context, w BrandWriter, brands []models.Brand) Summary {
	log := logger.ForComponent("seed").WithField("collection", "brands")
	var sum Summary

	for _, b := range brands {
		if b.ID == "" {
			log.Warn().Str("name", b.Name).Msg("Skipping entry without id")
			sum.Skipped++
			continue
		}
		stats, err := w.SaveBrand(ctx, b)
		if err != nil {
			log.Error().Err(err).Str("id", b.ID).Msg("Could not save brand")
			sum.Failed++
			continue
		}
		sum.Add(stats)
		logSaved(log, b.ID, stats)
	}
	return sum
}

// ImportProductTypes saves every product type that has an id.
func ImportProductTypes(ctx context.Context, w ProductTypeWriter, types []models.ProductType) Summary {
	log := logger.ForComponent("seed").WithField("collection", "product_types")
	var sum Summary

	for _, pt := range types {
		if pt.ID == "" {
			log.Warn().Str("label", pt.Label).Msg("Skipping entry without id")
			sum.Skipped++
			continue
		}
		stats, err := w.SaveProductType(ctx, pt)
		if err != nil {
			log.Error().Err(err).Str("id", pt.ID).Msg("Could not save product type")
			sum.Failed++
			continue
		}
		sum.Add(stats)
		logSaved(log, pt.ID, stats)
	}
	return sum
}

// BrandsFromFile reads path and imports its brands.
func BrandsFromFile(ctx context.Context, w BrandWriter, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open brands file: %w", err)
	}
	defer f.Close()

	brands, err := ReadBrands(f)
	if err != nil {
		return Summary{}, err
	}
	return ImportBrands(ctx, w, brands), nil
}

// ProductTypesFromFile reads path and imports its product types.
func ProductTypesFromFile(ctx context.Context, w ProductTypeWriter, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open product types file: %w", err)
	}
	defer f.Close()

	types, err := ReadProductTypes(f)
	if err != nil {
		return Summary{}, err
	}
	return ImportProductTypes(ctx, w, types), nil
}

func logSaved(log *logger.Logger, id string, stats models.UpsertStats) {
	switch {
	case stats.Inserted > 0:
		log.Info().Str("id", id).Msg("Inserted")
	case stats.Updated > 0:
		log.Info().Str("id", id).Msg("Updated")
	default:
		log.Debug().Str("id", id).Msg("Already up to date")
	}
}
