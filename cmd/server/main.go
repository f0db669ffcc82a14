package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pvidal/amigoinvisible/internal/api"
	"github.com/pvidal/amigoinvisible/internal/auth"
	"github.com/pvidal/amigoinvisible/internal/middleware"
	"github.com/pvidal/amigoinvisible/internal/service"
	"github.com/pvidal/amigoinvisible/internal/storage/sqlite"
	"github.com/pvidal/amigoinvisible/internal/ws"
	"github.com/pvidal/amigoinvisible/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	// Get config from env or use defaults
	dbPath := getEnv("DB_PATH", "./data/amigo.db")
	port := getEnv("APP_PORT", "8080")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	// Services
	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	authService := service.NewAuthService(authenticator, jwtManager, store, slog.Default())
	groupService := service.NewGroupService(store, slog.Default())

	// Change feed: the hub fans store events out to websocket viewers
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Close()
	unsubscribe := store.Subscribe(hub.Notify)
	defer unsubscribe()

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	apiHandlers := api.NewHandlers(authService, groupService, slog.Default())
	apiHandlers.SetupRoutes(r, jwtManager)

	wsHandlers := ws.NewHandlers(hub, groupService, slog.Default())
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtManager))
		wsHandlers.SetupRoutes(r)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
