package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docfill/internal/config"
	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
	"github.com/dgallion1/docfill/internal/importer"
	"github.com/dgallion1/docfill/internal/pipeline"
	"github.com/dgallion1/docfill/internal/session"
	"github.com/dgallion1/docfill/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docfill.
type Server struct {
	router       chi.Router
	session      *session.Session
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sess *session.Session, orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		session:      sess,
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.DocfillAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.DocfillAPIKey, s.log))
		}

		r.Route("/api/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Put("/role", s.handleSetRole)
			r.Put("/selection", s.handleSetSelection)
			r.Post("/fields", s.handleCreateField)
			r.Post("/fields/import", s.handleImportFieldValues)
			r.Put("/fields/{fieldID}", s.handleSetFieldValue)
			r.Post("/editable", s.handleMarkEditable)
			r.Post("/text", s.handleInsertText)
			r.Post("/delete", s.handleDelete)
			r.Post("/block", s.handleToggleBlock)
			r.Post("/align", s.handleSetAlignment)
			r.Get("/html", s.handleSessionHTML)
		})

		r.Route("/api/templates", func(r chi.Router) {
			r.Post("/", s.handleSaveTemplate)
			r.Get("/", s.handleListTemplates)
			r.Post("/import", s.handleImportTemplate)
			r.Get("/{key}", s.handleGetTemplate)
			r.Post("/{key}/load", s.handleLoadTemplate)
		})
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", s.handleSaveDocument)
			r.Get("/", s.handleListDocuments)
			r.Get("/{key}", s.handleGetDocument)
			r.Get("/{key}/html", s.handleDocumentHTML)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// decodeJSON decodes a request body into v. An empty body leaves v zero.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAdminOnly), errors.Is(err, session.ErrEndUserOnly):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoTemplate), errors.Is(err, editor.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidInput), errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, doctree.ErrInvalidTree), errors.Is(err, importer.ErrNoContent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	jsonError(w, err.Error(), code)
}
