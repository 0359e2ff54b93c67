// Package main is the entry point for the game server. It only handles
// configuration, dependency injection and server lifecycle. No game
// logic belongs here.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"

	"github.com/blarphus/crossword/internal/crossword"
	"github.com/blarphus/crossword/internal/infra/storage"
	"github.com/blarphus/crossword/internal/network"
	"github.com/blarphus/crossword/internal/platform/logger"
	"github.com/blarphus/crossword/internal/platform/metrics"
	"github.com/blarphus/crossword/internal/trivia"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// A missing .env is fine; the defaults below cover local runs.
	_ = godotenv.Load()

	log := logger.NewLogger(envOr("LOG_LEVEL", "info"))
	defer log.Sync()

	dbPath := envOr("DB_PATH", "data/games.db")
	log.Info("opening database", "path", dbPath)
	db, err := storage.InitSQLite(dbPath)
	if err != nil {
		log.Error("failed to initialize sqlite", "err", err)
		os.Exit(1)
	}
	store := storage.NewSQLiteStore(db)
	defer store.Close()

	router := network.NewRouter(log)
	hub := network.NewHub(router, log)

	crosswords := crossword.NewManager(hub, store, log)
	crosswords.Bind(router)

	games := trivia.NewManager(hub, store, log)
	games.Bind(router)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		network.ServeWS(hub, w, req)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/puzzle/{date}", func(w http.ResponseWriter, req *http.Request) {
			date := chi.URLParam(req, "date")
			if _, err := time.Parse("2006-01-02", date); err != nil {
				render.Status(req, http.StatusBadRequest)
				render.JSON(w, req, map[string]string{"error": "invalid date"})
				return
			}
			p, err := store.GetPuzzle(req.Context(), date)
			if err != nil {
				log.Error("puzzle fetch failed", "date", date, "err", err)
				render.Status(req, http.StatusInternalServerError)
				render.JSON(w, req, map[string]string{"error": "storage error"})
				return
			}
			if p == nil {
				render.Status(req, http.StatusNotFound)
				render.JSON(w, req, map[string]string{"error": "puzzle not found"})
				return
			}
			render.JSON(w, req, p)
		})

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, map[string]string{"status": "ok"})
		})

		r.Get("/rooms", func(w http.ResponseWriter, req *http.Request) {
			users, err := store.GetUserCount(req.Context())
			if err != nil {
				log.Error("user count failed", "err", err)
			}
			render.JSON(w, req, map[string]interface{}{
				"puzzles": crosswords.ActiveDates(),
				"trivia":  games.ActiveRooms(),
				"users":   users,
			})
		})
	})

	r.Get("/metrics", metrics.Handler())
	r.Get("/metrics/prometheus", metrics.PrometheusHandler())

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown incomplete", "err", err)
	}
}
