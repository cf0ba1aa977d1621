package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"LinkSearch/internal/models"
	"LinkSearch/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisCatalog stores each partition as one hash, keyed prefix:date:brand, with the
// link id as field and the link as value.
type RedisCatalog struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

// NewRedisCatalog connects to redis and checks the connection.
func NewRedisCatalog(ctx context.Context, addr string, db int, prefix string) (*RedisCatalog, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	if prefix == "" {
		prefix = "product_links"
	}
	return &RedisCatalog{client: client, prefix: prefix, log: logger.ForComponent("catalog")}, nil
}

func (c *RedisCatalog) key(date, brand string) string {
	return c.prefix + ":" + date + ":" + brand
}

// Upsert has the same diff-before-write rule as DBRepository.Upsert.
func (c *RedisCatalog) Upsert(ctx context.Context, date, brand string, links []models.DiscoveredLink) (models.UpsertStats, error) {
	var stats models.UpsertStats
	var errs []error
	key := c.key(date, brand)

	for _, l := range links {
		existing, err := c.client.HGet(ctx, key, l.ID).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if err = c.client.HSet(ctx, key, l.ID, l.Link).Err(); err == nil {
				stats.Inserted++
				c.log.Info().Str("brand", brand).Str("id", l.ID).Str("link", l.Link).Msg("Added new product link")
			}
		case err != nil:
		case existing == l.Link:
			stats.Unchanged++
		default:
			if err = c.client.HSet(ctx, key, l.ID, l.Link).Err(); err == nil {
				stats.Updated++
				c.log.Info().Str("brand", brand).Str("id", l.ID).Str("link", l.Link).Msg("Updated product link")
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("upsert %s/%s: %w", key, l.ID, err))
		}
	}
	return stats, errors.Join(errs...)
}

// Partition returns the id → link mapping of one partition.
func (c *RedisCatalog) Partition(ctx context.Context, date, brand string) (map[string]string, error) {
	return c.client.HGetAll(ctx, c.key(date, brand)).Result()
}

// PartitionBrands returns the brands that have a partition on date.
func (c *RedisCatalog) PartitionBrands(ctx context.Context, date string) ([]string, error) {
	prefix := c.prefix + ":" + date + ":"
	var brands []string
	iter := c.client.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		brands = append(brands, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(brands)
	return brands, nil
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '*', '?', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the redis connection.
func (c *RedisCatalog) Close() error {
	return c.client.Close()
}
