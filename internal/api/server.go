// SPDX-License-Identifier: MIT

// Package api wires the HTTP surface: title search, subscription
// optimization, and the recommendations stub, over a chi router carrying
// the system's request-id/logging middleware and a rate limiter on the
// optimize endpoint.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/JacobDahan/occam-api/internal/catalog"
	"github.com/JacobDahan/occam-api/internal/config"
	"github.com/JacobDahan/occam-api/internal/log"
	"github.com/JacobDahan/occam-api/internal/provider"
)

// Server holds the dependencies every handler needs. It is immutable after
// construction and shared by reference across requests.
type Server struct {
	provider provider.StreamingProvider
	catalog  *catalog.Repository
	weights  []float64
	logger   zerolog.Logger
}

// New builds a Server over an already-constructed provider and catalog
// repository. cfg.NiceToHaveWeights overrides the optimizer's nice-to-have
// spectrum; a nil or empty slice uses the optimizer package's default.
func New(p provider.StreamingProvider, catalogRepo *catalog.Repository, cfg config.Config) *Server {
	return &Server{
		provider: p,
		catalog:  catalogRepo,
		weights:  cfg.NiceToHaveWeights,
		logger:   log.WithComponent("api"),
	}
}

// Routes builds the complete request-handling chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(log.Middleware())

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/titles/search", s.handleSearchTitles)

	r.With(httprate.LimitByIP(60, time.Minute)).Post("/api/v1/optimize", s.handleOptimize)
	r.Post("/api/v1/recommendations", s.handleRecommendations)

	r.NotFound(handleNotFound)

	return r
}
