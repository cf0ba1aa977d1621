package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ScraperConfig holds browser and pacing settings.
type ScraperConfig struct {
	Workers        string  `yaml:"workers"`
	Headless       bool    `yaml:"headless"`
	ViewportWidth  int     `yaml:"viewport_width"`
	ViewportHeight int     `yaml:"viewport_height"`
	Incognito      bool    `yaml:"incognito"`
	NoSandbox      bool    `yaml:"no_sandbox"`
	Stealth        bool    `yaml:"stealth"`
	PaceMin        float64 `yaml:"pace_min_seconds"`
	PaceMax        float64 `yaml:"pace_max_seconds"`
}

// PaceRange returns the pacing bounds as durations.
func (s ScraperConfig) PaceRange() (time.Duration, time.Duration) {
	return seconds(s.PaceMin), seconds(s.PaceMax)
}

// StoreConfig selects where reference data lives and where catalog partitions go.
type StoreConfig struct {
	Path    string `yaml:"path"`
	Catalog string `yaml:"catalog"` // "sqlite" or "redis"
	Redis   struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`
}

// ServerConfig holds the catalog read API settings.
type ServerConfig struct {
	Port   string `yaml:"port"`
	ApiKey string `yaml:"api_key"`
}

// SeedConfig points at the JSON files imported by the seed tasks.
type SeedConfig struct {
	BrandsPath       string `yaml:"brands_path"`
	ProductTypesPath string `yaml:"product_types_path"`
}

// Config is the complete structure for the config.yml file.
type Config struct {
	Scraper ScraperConfig `yaml:"scraper"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Seed    SeedConfig    `yaml:"seed"`
}

// Default returns the settings used when no config file is present.
func Default() *Config {
	cfg := &Config{
		Scraper: ScraperConfig{
			Workers:        "1",
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			Incognito:      true,
			NoSandbox:      true,
			PaceMin:        0.1,
			PaceMax:        0.8,
		},
		Store:  StoreConfig{Path: "catalog.db", Catalog: "sqlite"},
		Server: ServerConfig{Port: "8080"},
		Seed:   SeedConfig{BrandsPath: "brands.json", ProductTypesPath: "product_types.json"},
	}
	cfg.Store.Redis.Addr = "localhost:6379"
	cfg.Store.Redis.Prefix = "product_links"
	return cfg
}

// LoadConfig reads filepath on top of the defaults and then applies environment
// overrides. A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error unmarshalling config YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Store.Path = getEnv("LINKSEARCH_DB_PATH", c.Store.Path)
	c.Store.Catalog = getEnv("LINKSEARCH_CATALOG", c.Store.Catalog)
	c.Store.Redis.Addr = getEnv("REDIS_ADDR", c.Store.Redis.Addr)
	c.Scraper.Workers = getEnv("LINKSEARCH_WORKERS", c.Scraper.Workers)
	c.Server.Port = getEnv("LINKSEARCH_PORT", c.Server.Port)
	c.Server.ApiKey = getEnv("LINKSEARCH_API_KEY", c.Server.ApiKey)
	c.Seed.BrandsPath = getEnv("BRANDS_JSON_PATH", c.Seed.BrandsPath)
	c.Seed.ProductTypesPath = getEnv("PRODUCT_TYPES_JSON_PATH", c.Seed.ProductTypesPath)

	var err error
	if c.Store.Redis.DB, err = getEnvInt("REDIS_DB", c.Store.Redis.DB); err != nil {
		return err
	}
	if c.Scraper.ViewportWidth, err = getEnvInt("LINKSEARCH_VIEWPORT_WIDTH", c.Scraper.ViewportWidth); err != nil {
		return err
	}
	if c.Scraper.ViewportHeight, err = getEnvInt("LINKSEARCH_VIEWPORT_HEIGHT", c.Scraper.ViewportHeight); err != nil {
		return err
	}
	if v := os.Getenv("LINKSEARCH_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LINKSEARCH_HEADLESS: %w", err)
		}
		c.Scraper.Headless = headless
	}
	return nil
}

// Validate checks values that would otherwise fail later inside the browser or store.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Store.Catalog != "sqlite" && c.Store.Catalog != "redis" {
		return fmt.Errorf("store.catalog must be sqlite or redis, got %q", c.Store.Catalog)
	}
	if c.Scraper.ViewportWidth <= 0 || c.Scraper.ViewportHeight <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", c.Scraper.ViewportWidth, c.Scraper.ViewportHeight)
	}
	if c.Scraper.PaceMin < 0 || c.Scraper.PaceMax < c.Scraper.PaceMin {
		return fmt.Errorf("invalid pace range [%v, %v)", c.Scraper.PaceMin, c.Scraper.PaceMax)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
