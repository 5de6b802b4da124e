package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"partstream/config"
	"partstream/database"
	"partstream/handlers"
	"partstream/middleware"
	"partstream/repository"
	"partstream/scheduler"
	"partstream/scraper"
	"partstream/search"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Create tables
	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository()
	sourceRepo := repository.NewSourceRepository()
	configRepo := repository.NewConfigRepository()

	// Wire the search pipeline
	cfg := config.DefaultSearchConfig()
	matcher := search.NewMatcher()
	fetcher := scraper.NewRelayFetcher(cfg)
	extractor := scraper.NewExtractor()
	sessions := scraper.NewSessionManager(cfg)

	localColor := os.Getenv("BRAND_PRIMARY_COLOR")
	if localColor == "" {
		localColor = "#4f46e5"
	}
	aggregator := search.NewAggregator(matcher, fetcher, extractor, cfg.PolitenessDelay, localColor)

	// Initialize handlers
	h := handlers.NewHandlers(productRepo, sourceRepo, configRepo, aggregator, matcher, sessions, cfg)
	defer h.Close()

	// Build the initial index and keep it fresh
	refresher := scheduler.NewIndexRefresher(productRepo, matcher, cfg.IndexRefreshSpec)
	refresher.Start()
	defer refresher.Stop()

	// Setup router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSec))

	// Health endpoint (no auth, no rate-limit exemption needed)
	r.HandleFunc("/health", healthCheck).Methods("GET")

	// API v1 routes
	apiV1 := r.PathPrefix("/api/v1").Subrouter()

	// Unified search
	apiV1.HandleFunc("/search", h.Search).Methods("GET")
	apiV1.HandleFunc("/search-async", h.SearchAsync).Methods("POST")
	apiV1.HandleFunc("/tasks", h.GetActiveTasks).Methods("GET")
	apiV1.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	apiV1.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")

	// Catalog management
	apiV1.HandleFunc("/products", h.GetProducts).Methods("GET")
	apiV1.HandleFunc("/products", h.CreateProduct).Methods("POST")
	apiV1.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT")
	apiV1.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")

	// External source management
	apiV1.HandleFunc("/sources", h.GetSources).Methods("GET")
	apiV1.HandleFunc("/sources", h.CreateSource).Methods("POST")
	apiV1.HandleFunc("/sources/{id}", h.UpdateSource).Methods("PUT")
	apiV1.HandleFunc("/sources/{id}", h.DeleteSource).Methods("DELETE")
	apiV1.HandleFunc("/sources/{id}/session", h.StartSession).Methods("POST")

	// Settings
	apiV1.HandleFunc("/settings/search-mode", h.GetSearchMode).Methods("GET")
	apiV1.HandleFunc("/settings/search-mode", h.SetSearchMode).Methods("PUT")

	// CORS configuration
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	log.Printf("🌐 Server starting on port %s", port)
	log.Printf("📋 Endpoints:")
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /api/v1/search?q=&mode= - Unified catalog + scrape search")
	log.Printf("   POST /api/v1/search-async - Queue a search task")
	log.Printf("   GET  /api/v1/products - Catalog")
	log.Printf("   GET  /api/v1/sources - External sources")
	log.Printf("   POST /api/v1/sources/{id}/session - Open login surface")

	// Start server
	log.Fatal(http.ListenAndServe(host+":"+port, c.Handler(r)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"service":"partstream","status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}
