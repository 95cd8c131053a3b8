// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package server is the microdata extraction HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"codeberg.org/readeck/microdata/internal/config"
	"codeberg.org/readeck/microdata/internal/metrics"
)

// Server is a wrapper around chi router.
type Server struct {
	*chi.Mux
	cfg    *config.Config
	client *http.Client
}

// New creates a new server with all its routes.
// client is used to fetch remote documents.
func New(cfg *config.Config, client *http.Client) *Server {
	s := &Server{
		Mux:    chi.NewRouter(),
		cfg:    cfg,
		client: client,
	}

	s.Use(
		middleware.Recoverer,
		InitRequest,
		Logger(slog.Default()),
		metrics.Middleware,
		CompressResponse,
	)

	s.Mount("/api/info", infoRoutes())
	s.Mount("/api/extract", s.extractRoutes())
	if cfg.Server.Metrics {
		s.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	s.NotFound(func(w http.ResponseWriter, r *http.Request) {
		TextMsg(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	s.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		TextMsg(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return s
}

// infoRoutes returns the route returning the service information.
func infoRoutes() http.Handler {
	r := chi.NewRouter()

	type versionInfo struct {
		Canonical string `json:"canonical"`
		Release   string `json:"release"`
		Build     string `json:"build"`
	}

	type serviceInfo struct {
		Version versionInfo `json:"version"`
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		canonical := config.Version
		release, build, _ := strings.Cut(canonical, "-")

		Render(w, r, http.StatusOK, serviceInfo{
			Version: versionInfo{
				Canonical: canonical,
				Release:   release,
				Build:     build,
			},
		})
	})

	return r
}

// Log returns a log entry including the request ID.
func Log(r *http.Request) *slog.Logger {
	return slog.With(slog.String("@id", GetReqID(r)))
}
