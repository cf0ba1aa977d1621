package main

import (
	"context"
	"os"

	"LinkSearch/internal/app"
	"LinkSearch/internal/server"
	"LinkSearch/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	logger.Init()
	log := logger.Default

	configPath := "config.yml"
	if v := os.Getenv("LINKSEARCH_CONFIG"); v != "" {
		configPath = v
	}

	// The server reads whichever catalog backend the scraper writes to.
	application, err := app.New(context.Background(), configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog")
	}
	defer application.Close()

	if err := server.Start(application.Catalog, application.Config); err != nil {
		log.Error().Err(err).Msg("Server stopped")
		application.Close()
		os.Exit(1)
	}
}
