package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/cache"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/events"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/itinerary"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/repositories"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/adapters/routing"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/api"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/config"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/metrics"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/platform/db"
	"github.com/hlsb07/roadtrip-route-planner-sub000/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, OSRM, NATS) behind ports and starts
// the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal(fmt.Errorf("init schema: %w", err))
	}
	if err := repositories.SeedFromJSON(conn, cfg.SeedPath); err != nil {
		log.Fatal(fmt.Errorf("seed demo data: %w", err))
	}

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		collector.Serve(cfg.MetricsAddr)
	}

	// OSRM provider uses a persistent Postgres cache to avoid repeated
	// table-service calls for known place pairs.
	distanceCache := cache.NewSQLDistanceCache(conn)
	provider, err := routing.NewOSRMProvider(cfg.OSRMBaseURL, cfg.OSRMProfile, distanceCache)
	if err != nil {
		log.Fatal(err)
	}

	services.SetRoutingFanout(cfg.MaxRoutingFanout)

	var pub itinerary.EventPublisher
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL, collector)
		if err != nil {
			log.Fatal(err)
		}
		defer np.Close()
		pub = np
	}

	store := repositories.NewPostgresTripStore(conn)
	svc := itinerary.NewService(store, provider, pub)
	router := api.NewRouter(svc)

	// Timeouts are tuned for cold-cache leg rebuilds (external API latency).
	log.Printf("Server listening addr=:%s", cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
