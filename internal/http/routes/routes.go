// Package routes wires the HTTP API: the cache-aware games endpoint plus
// health and stats.
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lborges/gamedex/internal/cache"
)

type Server struct {
	Router *chi.Mux

	cache              *cache.Cache
	upstreamConfigured bool
	logger             zerolog.Logger
}

type ServerOptions struct {
	Cache *cache.Cache
	// UpstreamConfigured is false when no upstream API key is set; the games
	// endpoint then answers 503 before any cache or store interaction.
	UpstreamConfigured bool
	Logger             zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:             r,
		cache:              opts.Cache,
		upstreamConfigured: opts.UpstreamConfigured,
		logger:             opts.Logger,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	})

	r.Get("/api/games", s.handleGames)
	r.Get("/api/cache/stats", s.handleCacheStats)

	return s
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if !s.upstreamConfigured {
		writeError(w, http.StatusServiceUnavailable, "upstream API key not configured")
		return
	}

	req := cache.ParseRequest(r.URL.Query())
	res, err := s.cache.Serve(r.Context(), req)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", req.Query).Msg("upstream fetch failed")
		writeError(w, http.StatusBadGateway, "upstream unavailable")
		return
	}

	header := w.Header()
	for k, vs := range res.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	header.Set("X-Cache", string(res.Cache))
	if res.Revalidate != "" {
		header.Set("X-Cache-Revalidate", res.Revalidate)
	}
	w.WriteHeader(res.Status)
	w.Write(res.Body) //nolint:errcheck
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.cache.Runtime().Metrics.Snapshot()); err != nil {
		s.logger.Warn().Err(err).Msg("encode stats failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
