package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"LinkSearch/internal/app"
	"LinkSearch/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	godotenv.Load()

	logger.Init()
	log := logger.Default

	task := flag.String("task", "run", "Task to run: run, seed-brands, or seed-product-types")
	configPath := flag.String("config", "config.yml", "Path to the YAML configuration file")
	flag.Parse()

	// SIGINT stops the run between attempts; the browser is still released.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("task", *task).Msg("Running task")
	if err := run(ctx, *task, *configPath); err != nil {
		log.Error().Err(err).Str("task", *task).Msg("Task aborted")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, task, configPath string) error {
	application, err := app.New(ctx, configPath)
	if err != nil {
		return err
	}
	defer application.Close()

	switch task {
	case "run":
		_, err = application.RunDiscovery(ctx)
	case "seed-brands":
		_, err = application.RunSeedBrands(ctx)
	case "seed-product-types":
		_, err = application.RunSeedProductTypes(ctx)
	default:
		err = fmt.Errorf("unknown task: %s", task)
	}
	return err
}
