package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.app.Service().ListFolders()
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]folderJSON, 0, len(folders))
	for _, f := range folders {
		out = append(out, toFolderJSON(f))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	folder, err := s.app.Service().CreateFolder(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFolderJSON(folder))
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := s.app.Service().GetFolder(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFolderJSON(folder))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Service().DeleteFolder(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}
