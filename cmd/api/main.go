package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/config"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/handlers"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/matching"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/pricing"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
)

func main() {
	// Load .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()

	engineCfg, err := config.LoadEngineConfig(cfg.EnginePath)
	if err != nil {
		log.Fatalf("Failed to load engine config: %v", err)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Load the persisted distance graph into memory for request-time
	// resolver lookups; the import endpoint reloads it after each batch.
	cache := handlers.NewGraphCache(store)
	if err := cache.Reload(ctx); err != nil {
		log.Fatalf("Failed to load distance graph: %v", err)
	}
	log.Printf("Distance graph loaded: %d stations, %d pairs",
		len(cache.Graph().Stations), len(cache.Graph().Pairs))

	calculator := pricing.NewCalculator(engineCfg.Pricing, cache)
	matcher := matching.New(engineCfg.Matching)

	scheduleHandler := handlers.NewScheduleHandler(store, cache)
	stationHandler := handlers.NewStationHandler(cache)
	feeHandler := handlers.NewFeeHandler(calculator)
	journeyHandler := handlers.NewJourneyHandler(store)
	parcelHandler := handlers.NewParcelHandler(store, calculator)
	matchHandler := handlers.NewMatchHandler(store, matcher)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check endpoint with database connectivity test
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			handlers.WriteHealth(w, http.StatusServiceUnavailable, "error", "disconnected", err)
			return
		}
		handlers.WriteHealth(w, http.StatusOK, "ok", "connected", nil)
	})

	// Schedule ingestion
	r.Post("/api/schedules/import", scheduleHandler.Import)

	// Station and distance lookups
	r.Get("/api/stations/search", stationHandler.Search)
	r.Get("/api/distance", stationHandler.Distance)

	// Fee quoting
	r.Get("/api/fees/quote", feeHandler.Quote)

	// Carrier journeys
	r.Get("/api/carriers/{carrierID}/journeys", journeyHandler.List)
	r.Post("/api/carriers/{carrierID}/journeys", journeyHandler.Create)
	r.Post("/api/carriers/{carrierID}/journeys/{journeyID}/deactivate", journeyHandler.Deactivate)
	r.Delete("/api/carriers/{carrierID}/journeys/{journeyID}", journeyHandler.Delete)

	// Parcel requests
	r.Post("/api/senders/{senderID}/parcels", parcelHandler.Create)
	r.Get("/api/senders/{senderID}/parcels", parcelHandler.ListBySender)
	r.Get("/api/parcels/pending", parcelHandler.ListPending)

	// Matching
	r.Get("/api/match", matchHandler.Match)
	r.Get("/api/journeys/{journeyID}/matches", matchHandler.MatchesForJourney)

	log.Printf("API server starting on :%s", cfg.Port)
	log.Println("Schedule endpoints:")
	log.Println("  POST /api/schedules/import")
	log.Println("Lookup endpoints:")
	log.Println("  GET /api/stations/search?q=")
	log.Println("  GET /api/distance?from=&to=")
	log.Println("  GET /api/fees/quote?weight=&from=&to=")
	log.Println("Marketplace endpoints:")
	log.Println("  GET/POST /api/carriers/{carrierID}/journeys")
	log.Println("  GET/POST /api/senders/{senderID}/parcels")
	log.Println("  GET /api/parcels/pending")
	log.Println("  GET /api/match?journeyId=&parcelId=&carrierId=&verified=")
	log.Println("  GET /api/journeys/{journeyID}/matches")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// openStore picks Postgres when DATABASE_URL is set, SQLite otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURL != "" {
		log.Println("Using Postgres store")
		return repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	log.Printf("Using SQLite store: %s", cfg.DatabasePath)
	return repository.NewSQLiteStore(ctx, cfg.DatabasePath)
}
