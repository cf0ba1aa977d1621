package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"LinkSearch/internal/models"
	"LinkSearch/pkg/config"
	"LinkSearch/pkg/logger"
)

// Reader is the read side of the catalog.
type Reader interface {
	Partition(ctx context.Context, date, brand string) (map[string]string, error)
	PartitionBrands(ctx context.Context, date string) ([]string, error)
}

// Start serves the catalog read API until the listener fails.
func Start(reader Reader, cfg *config.Config) error {
	log := logger.ForComponent("server")
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           NewHandler(reader, cfg.Server.ApiKey),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("port", cfg.Server.Port).Bool("api_key", cfg.Server.ApiKey != "").Msg("Starting catalog API server")
	return srv.ListenAndServe()
}

// NewHandler routes the catalog endpoints. When apiKey is set, partition endpoints
// require it in the X-API-Key header.
func NewHandler(reader Reader, apiKey string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /partitions/{date}", requireKey(apiKey, brandsHandler(reader)))
	mux.Handle("GET /partitions/{date}/{brand}", requireKey(apiKey, partitionHandler(reader)))
	return mux
}

func requireKey(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("X-API-Key")), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func brandsHandler(reader Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := partitionDate(w, r)
		if !ok {
			return
		}
		brands, err := reader.PartitionBrands(r.Context(), date)
		if err != nil {
			logger.ForComponent("server").Error().Err(err).Str("date", date).Msg("Failed to list partitions")
			writeError(w, http.StatusInternalServerError, "failed to list partitions")
			return
		}
		if brands == nil {
			brands = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": date, "brands": brands})
	}
}

func partitionHandler(reader Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := partitionDate(w, r)
		if !ok {
			return
		}
		brand := r.PathValue("brand")
		links, err := reader.Partition(r.Context(), date, brand)
		if err != nil {
			logger.ForComponent("server").Error().Err(err).Str("date", date).Str("brand", brand).Msg("Failed to read partition")
			writeError(w, http.StatusInternalServerError, "failed to read partition")
			return
		}
		if len(links) == 0 {
			writeError(w, http.StatusNotFound, "partition not found")
			return
		}

		out := make(map[string]models.LinkRecord, len(links))
		for id, link := range links {
			out[id] = models.LinkRecord{Link: link}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func partitionDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.PathValue("date")
	if _, err := time.Parse(models.PartitionDateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ForComponent("server").Error().Err(err).Msg("Failed to encode response")
	}
}
