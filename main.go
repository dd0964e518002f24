package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/fmuoria/candidate-dashboard/internal/api"
	"github.com/fmuoria/candidate-dashboard/internal/app"
	"github.com/fmuoria/candidate-dashboard/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		cfg = config.DefaultConfig()
	}
	cfg.OverrideFromEnv()
	cfg.ApplyToEnv()

	if err := cfg.Validate(); err != nil {
		log.Printf("Configuration warning: %v", err)
	}

	ctx := context.Background()
	services, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dashboard: %v", err)
	}
	defer services.Close()

	if err := services.LoadInitial(ctx); err != nil {
		log.Printf("No dataset loaded at startup: %v", err)
	}

	// Create API server
	server := api.NewServer(services.Dashboard, services.Assistant, services.Uploads, services.Sources)

	fmt.Printf("Starting Candidate Dashboard on port %s...\n", cfg.Port)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  POST /dataset - Upload a spreadsheet or reload a source\n")
	fmt.Printf("  GET /dashboard - Filtered metrics and charts\n")
	fmt.Printf("  POST /filters/{facet}/{action} - Drive a facet picker\n")
	fmt.Printf("  POST /chat - Ask the talent analyst\n")

	if err := http.ListenAndServe(":"+cfg.Port, server.Router()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
