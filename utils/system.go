package utils

import (
	"strconv"

	"LinkSearch/pkg/logger"

	"github.com/shirou/gopsutil/v3/cpu"
)

// maxBrowserWorkers caps automatic sizing; every worker owns a whole browser.
const maxBrowserWorkers = 8

// cpuCounts is replaced in tests.
var cpuCounts = cpu.Counts

// GetOptimalWorkerCount determines the number of browser workers from the config value:
// a positive number is used as-is, "auto" derives it from the logical CPU count.
func GetOptimalWorkerCount(configValue string) int {
	log := logger.ForComponent("workers")

	if manual, err := strconv.Atoi(configValue); err == nil && manual > 0 {
		log.Debug().Int("workers", manual).Msg("Using configured number of workers")
		return manual
	}

	if configValue != "auto" {
		log.Warn().Str("value", configValue).Msg("Invalid workers value, defaulting to auto")
	}

	cores, err := cpuCounts(true)
	if err != nil {
		log.Warn().Err(err).Msg("Could not detect CPU cores, falling back to 1 worker")
		return 1
	}

	// Half the logical cores: a browser per worker is heavy.
	optimal := cores / 2
	if optimal < 1 {
		optimal = 1
	}
	if optimal > maxBrowserWorkers {
		optimal = maxBrowserWorkers
	}

	log.Info().Int("cores", cores).Int("workers", optimal).Msg("Automatically sized worker pool")
	return optimal
}
