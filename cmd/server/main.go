package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/JungMoonYoung/auto-insight-platform/adapters/sqlite"
	"github.com/JungMoonYoung/auto-insight-platform/api"
	"github.com/JungMoonYoung/auto-insight-platform/internal/config"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] configuration error: %v", err)
	}

	db, err := sqlite.Open(context.Background(), cfg.Database.Path)
	if err != nil {
		log.Fatalf("[Server] database error: %v", err)
	}
	defer db.Close()

	srv := api.NewServer(cfg, sqlite.NewDatasetRepository(db), sqlite.NewAnalysisRepository(db))

	addr := ":" + cfg.Server.Port
	log.Printf("[Server] listening on %s (db=%s)", addr, cfg.Database.Path)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("[Server] server failed: %v", err)
	}
}
