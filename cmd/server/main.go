package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"freight-assignment-service/internal/adapters/cache"
	"freight-assignment-service/internal/adapters/milp"
	"freight-assignment-service/internal/adapters/repositories"
	"freight-assignment-service/internal/api"
	"freight-assignment-service/internal/config"
	"freight-assignment-service/internal/metrics"
	"freight-assignment-service/internal/platform/db"
	"freight-assignment-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}
	port := config.Get("PORT", "8080")
	tuningPath := config.Get("TUNING_PATH", "config/tuning.yaml")

	tuning, err := config.Load(tuningPath)
	if err != nil {
		log.Fatal(err)
	}

	database, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	// Create tables on first run; seeding stays in the dbtool.
	if err := repositories.InitSchema(context.Background(), database); err != nil {
		log.Fatal(err)
	}

	metrics.RegisterDefault()

	inputs := repositories.NewPostgresInputRepository(database)
	store := repositories.NewPostgresPlanStore(database)

	svc := &services.PlanService{
		Engines:      milp.Factory{},
		Consignments: inputs,
		Trucks:       inputs,
		Facilities:   inputs,
		TravelLegs:   inputs,
		Store:        store,
	}
	tuning.ServiceSettings(svc)

	// The plan cache is optional; without REDIS_URL every request solves fresh.
	if redisURL := os.Getenv("REDIS_URL"); strings.TrimSpace(redisURL) != "" {
		planCache, err := cache.NewRedisPlanCache(redisURL)
		if err != nil {
			log.Fatal(err)
		}
		defer planCache.Close()
		svc.Cache = planCache
	}

	router := api.NewRouter(svc, inputs, inputs, inputs)

	// Write timeout sized for solves running up to the API's time limit cap.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      11 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
