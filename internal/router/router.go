package router

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"inventory-api/internal/cache"
	"inventory-api/internal/config"
	"inventory-api/internal/handlers"
	"inventory-api/internal/middleware"
)

func SetupRouter(db *sql.DB, store cache.Store, cfg config.Config, logger zerolog.Logger) *mux.Router {
	authHandler := handlers.NewAuthHandler(db, cfg, logger)
	itemHandler := handlers.NewItemHandler(db, store, cfg.CacheTTL, logger)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(10), 20)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(rateLimiter.Middleware())

	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/token/refresh", authHandler.Refresh).Methods("POST")

	items := r.PathPrefix("/items").Subrouter()
	items.Use(middleware.Authentication(cfg.JWTSecret, logger))
	items.Use(middleware.RequestValidation())
	items.HandleFunc("", itemHandler.List).Methods("GET")
	items.HandleFunc("", itemHandler.Create).Methods("POST")
	items.HandleFunc("/{id}", itemHandler.Get).Methods("GET")
	items.HandleFunc("/{id}", itemHandler.Update).Methods("PUT")
	items.HandleFunc("/{id}", itemHandler.Delete).Methods("DELETE")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
