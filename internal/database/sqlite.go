package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"LinkSearch/internal/models"
	"LinkSearch/pkg/logger"

	_ "modernc.org/sqlite"
)

// DBRepository holds reference data (brands, product types) and, by default, the
// catalog partitions.
type DBRepository struct {
	DB  *sql.DB
	log *logger.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS brands (
	"id" TEXT NOT NULL PRIMARY KEY,
	"name" TEXT NOT NULL,
	"website" TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS product_types (
	"id" TEXT NOT NULL PRIMARY KEY,
	"label" TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS product_links (
	"partition_date" TEXT NOT NULL,
	"brand" TEXT NOT NULL,
	"link_id" TEXT NOT NULL,
	"link" TEXT NOT NULL,
	"inserted_at" DATETIME,
	PRIMARY KEY ("partition_date", "brand", "link_id")
);`

// InitDB opens (creating if needed) the sqlite database at filepath.
func InitDB(filepath string) (*DBRepository, error) {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer; parallel brand workers share this handle.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log := logger.ForComponent("database")
	log.Info().Str("path", filepath).Msg("Database and tables initialized")
	return &DBRepository{DB: db, log: log}, nil
}

// Close closes the database connection.
func (repo *DBRepository) Close() error {
	return repo.DB.Close()
}

// Brands returns every brand ordered by id.
func (repo *DBRepository) Brands(ctx context.Context) ([]models.Brand, error) {
	rows, err := repo.DB.QueryContext(ctx, "SELECT id, name, website FROM brands ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Website); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// ProductTypes returns every product type ordered by id.
func (repo *DBRepository) ProductTypes(ctx context.Context) ([]models.ProductType, error) {
	rows, err := repo.DB.QueryContext(ctx, "SELECT id, label FROM product_types ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query product types: %w", err)
	}
	defer rows.Close()

	var types []models.ProductType
	for rows.Next() {
		var pt models.ProductType
		if err := rows.Scan(&pt.ID, &pt.Label); err != nil {
			return nil, fmt.Errorf("scan product type: %w", err)
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}

// SaveBrand inserts b, or updates it when its name or website changed.
func (repo *DBRepository) SaveBrand(ctx context.Context, b models.Brand) (models.UpsertStats, error) {
	var existing models.Brand
	err := repo.DB.QueryRowContext(ctx, "SELECT name, website FROM brands WHERE id = ?", b.ID).
		Scan(&existing.Name, &existing.Website)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = repo.DB.ExecContext(ctx, "INSERT INTO brands (id, name, website) VALUES (?, ?, ?)", b.ID, b.Name, b.Website)
		return models.UpsertStats{Inserted: 1}, err
	case err != nil:
		return models.UpsertStats{}, err
	case existing.Name == b.Name && existing.Website == b.Website:
		return models.UpsertStats{Unchanged: 1}, nil
	default:
		_, err = repo.DB.ExecContext(ctx, "UPDATE brands SET name = ?, website = ? WHERE id = ?", b.Name, b.Website, b.ID)
		return models.UpsertStats{Updated: 1}, err
	}
}

// SaveProductType inserts pt, or updates it when its label changed.
func (repo *DBRepository) SaveProductType(ctx context.Context, pt models.ProductType) (models.UpsertStats, error) {
	var label string
	err := repo.DB.QueryRowContext(ctx, "SELECT label FROM product_types WHERE id = ?", pt.ID).Scan(&label)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = repo.DB.ExecContext(ctx, "INSERT INTO product_types (id, label) VALUES (?, ?)", pt.ID, pt.Label)
		return models.UpsertStats{Inserted: 1}, err
	case err != nil:
		return models.UpsertStats{}, err
	case label == pt.Label:
		return models.UpsertStats{Unchanged: 1}, nil
	default:
		_, err = repo.DB.ExecContext(ctx, "UPDATE product_types SET label = ? WHERE id = ?", pt.Label, pt.ID)
		return models.UpsertStats{Updated: 1}, err
	}
}

// Upsert records links in the (date, brand) partition. Each link is read first: a new
// id is inserted, a changed link is rewritten, an identical one is left alone. Nothing
// is ever deleted, and a correction touches the link column only. A failing link does
// not stop the others.
func (repo *DBRepository) Upsert(ctx context.Context, date, brand string, links []models.DiscoveredLink) (models.UpsertStats, error) {
	var stats models.UpsertStats
	var errs []error

	for _, l := range links {
		var existing string
		err := repo.DB.QueryRowContext(ctx,
			"SELECT link FROM product_links WHERE partition_date = ? AND brand = ? AND link_id = ?",
			date, brand, l.ID).Scan(&existing)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = repo.DB.ExecContext(ctx,
				"INSERT INTO product_links (partition_date, brand, link_id, link, inserted_at) VALUES (?, ?, ?, ?, ?)",
				date, brand, l.ID, l.Link, time.Now())
			if err == nil {
				stats.Inserted++
				repo.log.Info().Str("brand", brand).Str("id", l.ID).Str("link", l.Link).Msg("Added new product link")
			}
		case err != nil:
		case existing == l.Link:
			stats.Unchanged++
			repo.log.Debug().Str("brand", brand).Str("id", l.ID).Msg("Product link unchanged")
		default:
			_, err = repo.DB.ExecContext(ctx,
				"UPDATE product_links SET link = ? WHERE partition_date = ? AND brand = ? AND link_id = ?",
				l.Link, date, brand, l.ID)
			if err == nil {
				stats.Updated++
				repo.log.Info().Str("brand", brand).Str("id", l.ID).Str("link", l.Link).Msg("Updated product link")
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("upsert %s/%s/%s: %w", date, brand, l.ID, err))
		}
	}
	return stats, errors.Join(errs...)
}

// Partition returns the id → link mapping of one partition.
func (repo *DBRepository) Partition(ctx context.Context, date, brand string) (map[string]string, error) {
	rows, err := repo.DB.QueryContext(ctx,
		"SELECT link_id, link FROM product_links WHERE partition_date = ? AND brand = ?", date, brand)
	if err != nil {
		return nil, fmt.Errorf("query partition: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, link string
		if err := rows.Scan(&id, &link); err != nil {
			return nil, fmt.Errorf("scan product link: %w", err)
		}
		out[id] = link
	}
	return out, rows.Err()
}

// PartitionBrands returns the brands that have a partition on date.
func (repo *DBRepository) PartitionBrands(ctx context.Context, date string) ([]string, error) {
	rows, err := repo.DB.QueryContext(ctx,
		"SELECT DISTINCT brand FROM product_links WHERE partition_date = ? ORDER BY brand", date)
	if err != nil {
		return nil, fmt.Errorf("query partitions: %w", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}
