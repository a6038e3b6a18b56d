package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Musarty/cache"
	"Musarty/config"
	"Musarty/core/directory"
	"Musarty/core/session"
	"Musarty/logger"
	"Musarty/storage"

	"github.com/gorilla/mux"
)

// Server owns the HTTP surface of the player.
type Server struct {
	cfg    *config.Config
	dir    directory.Directory
	icons  storage.IconStore
	hub    *session.Hub
	web    *webAssets
	router *mux.Router
}

// New builds the router. hub must already be running.
func New(cfg *config.Config, dir directory.Directory, icons storage.IconStore, hub *session.Hub) *Server {
	s := &Server{
		cfg:   cfg,
		dir:   dir,
		icons: icons,
		hub:   hub,
		web:   newWebAssets(cfg.WebDir),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	stations := &StationHandler{dir: s.dir, popularLimit: s.cfg.PopularLimit, searchLimit: s.cfg.SearchLimit}
	icons := NewIconHandler(s.icons, s.web, s.cfg.IconMaxBytes, s.cfg.IconAllowPrivate)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stations/popular", stations.HandlePopular).Methods(http.MethodGet)
	api.HandleFunc("/stations/search", stations.HandleSearch).Methods(http.MethodGet)
	api.HandleFunc("/icons/{stationId}", icons.ServeHTTP).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/ws", s.handleWebSocket)

	router.PathPrefix("/assets/").Handler(s.web.fileServer())
	router.HandleFunc("/admin", s.web.page("admin.html")).Methods(http.MethodGet)
	router.HandleFunc("/", s.web.page("index.html")).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start wires the directory, caches and stores from cfg and serves until
// SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	client := directory.NewClient(cfg.DirectoryBaseURL)
	client.SetTimeout(cfg.DirectoryTimeout)

	var dir directory.Directory = client
	if cfg.RedisEnabled {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("station cache disabled", logger.ErrorField(err))
		} else {
			defer cache.CloseRedis()
			dir = directory.NewCached(client, cache.NewStationCache(cache.RedisClient, cfg.StationCacheTTL))
			logger.Info("station cache enabled", logger.Duration("ttl", cfg.StationCacheTTL))
		}
	}

	var icons storage.IconStore = storage.NewMemoryStore(0)
	if cfg.MinioEnabled {
		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			logger.Warn("falling back to in-memory icon store", logger.ErrorField(err))
		} else {
			icons = store
		}
	}

	hub := session.NewHub()
	go hub.Run()
	defer hub.Stop()

	if cfg.WebDir != "" {
		reload, err := WatchWebDir(cfg.WebDir, hub)
		if err != nil {
			logger.Warn("live reload disabled", logger.String("dir", cfg.WebDir), logger.ErrorField(err))
		} else {
			defer reload.Close()
		}
	}

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     New(cfg, dir, icons, hub).Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		// No WriteTimeout: websocket sessions are long-lived.
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			logger.String("addr", cfg.HTTPAddr),
			logger.String("directory", cfg.DirectoryBaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
		}
		return nil
	case <-stop:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
