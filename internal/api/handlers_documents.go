package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	key, err := s.session.SaveDocument(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"key": key})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	keys, err := s.session.ListDocuments(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": keys})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.session.Document(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDocumentHTML(w http.ResponseWriter, r *http.Request) {
	html, err := s.session.RenderDocument(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeHTML(w, html)
}
