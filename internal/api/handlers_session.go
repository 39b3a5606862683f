package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
	"github.com/dgallion1/docfill/internal/importer"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	role, err := editor.ParseRole(req.Role)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.session.SetRole(role)
	writeJSON(w, http.StatusOK, map[string]any{"role": role})
}

// handleSetSelection sets the selection; a null or missing range clears it.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selection *doctree.Range `json:"selection"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.session.Select(req.Selection); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selection": req.Selection})
}

func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	id, ok, err := s.session.TurnSelectionIntoField(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"created": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": true, "field_id": id})
}

func (s *Server) handleSetFieldValue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	n, err := s.session.SetFieldValue(r.Context(), chi.URLParam(r, "fieldID"), req.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

// handleImportFieldValues applies a fieldId,fieldValue CSV upload to the
// live fields. The body is either the raw CSV or a multipart "file" part.
func (s *Server) handleImportFieldValues(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	body := r.Body
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()
		file, _, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		body = file
	}

	values, err := importer.ParseFieldValues(body)
	if err != nil {
		jsonError(w, "invalid csv: "+err.Error(), http.StatusBadRequest)
		return
	}
	n, err := s.session.SetFieldValues(r.Context(), values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": len(values), "updated": n})
}

func (s *Server) handleMarkEditable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Editable bool `json:"editable"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	n, err := s.session.MarkSelectionEditable(r.Context(), req.Editable)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (s *Server) handleInsertText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ok, err := s.session.InsertText(r.Context(), req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": ok})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	var forward bool
	switch req.Direction {
	case "", "backward":
	case "forward":
		forward = true
	default:
		jsonError(w, "direction must be backward or forward", http.StatusBadRequest)
		return
	}
	ok, err := s.session.Delete(r.Context(), forward)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": ok})
}

func (s *Server) handleToggleBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind doctree.Kind `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	n, err := s.session.ToggleBlock(r.Context(), req.Kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (s *Server) handleSetAlignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Align doctree.Align `json:"align"`
	}
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	n, err := s.session.SetAlignment(r.Context(), req.Align)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (s *Server) handleSessionHTML(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, s.session.HTML())
}
