// Package main provides the entry point for the movies REST API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movies/config"
	"movies/database"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// App represents the application with its dependencies
type App struct {
	db       *database.DB
	validate *validator.Validate
}

// NewApp creates the application around an open database
func NewApp(db *database.DB) *App {
	return &App{
		db:       db,
		validate: newValidator(),
	}
}

func (app *App) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	// Health check endpoint
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Collection endpoints answer with and without the trailing slash
	for _, path := range []string{"/movies", "/movies/"} {
		r.HandleFunc(path, app.withMovies(app.listMoviesHandler)).Methods(http.MethodGet)
		r.HandleFunc(path, app.withMovies(app.createMovieHandler)).Methods(http.MethodPost)
	}

	r.HandleFunc("/movies/{id:[0-9]+}", app.withMovies(app.getMovieHandler)).Methods(http.MethodGet)
	r.HandleFunc("/movies/{id:[0-9]+}", app.withMovies(app.patchMovieHandler)).Methods(http.MethodPatch)
	r.HandleFunc("/movies/{id:[0-9]+}", app.withMovies(app.replaceMovieHandler)).Methods(http.MethodPut)
	r.HandleFunc("/movies/{id:[0-9]+}", app.withMovies(app.deleteMovieHandler)).Methods(http.MethodDelete)

	return r
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg := config.Load()

	// Initialize database
	db, err := database.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	// Initialize schema
	if err := db.InitSchema(); err != nil {
		log.Fatal("Failed to initialize schema:", err)
	}
	if cfg.SeedData {
		if err := db.Seed(); err != nil {
			log.Fatal("Failed to seed lookup tables:", err)
		}
	}

	app := NewApp(db)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s (%s)", cfg.Addr(), db.Driver())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
