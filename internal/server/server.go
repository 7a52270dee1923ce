// Package server implements the tasky HTTP API: signup/login, the
// per-user task CRUD and reorder endpoints, and AI task extraction.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/config"
	"github.com/tasky-app/tasky/internal/storage"
)

type Server struct {
	cfg       config.Config
	repo      storage.Repository
	log       *slog.Logger
	validate  *validator.Validate
	extractor Extractor
}

func New(cfg config.Config, repo storage.Repository, log *slog.Logger, extractor Extractor) *Server {
	if extractor == nil {
		extractor = heuristicExtractor{}
	}
	return &Server{
		cfg:       cfg,
		repo:      repo,
		log:       log,
		validate:  validator.New(),
		extractor: extractor,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleCreateTask)
			r.Patch("/tasks/{id}", s.handleUpdateTask)
			r.Delete("/tasks/{id}", s.handleDeleteTask)
			r.Post("/tasks/reorder", s.handleReorderTasks)
			r.Post("/ai/extract", s.handleExtractTasks)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// decodeValid decodes the JSON body into dst and runs struct validation.
func (s *Server) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return s.validate.Struct(dst)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, api.ErrorResponse{Error: msg})
}
