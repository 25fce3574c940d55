package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"minicloud/internal/drive"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	filter := drive.FileFilter{
		FolderID: r.URL.Query().Get("folder"),
		Query:    r.URL.Query().Get("q"),
	}
	switch r.URL.Query().Get("trashed") {
	case "1":
		trashed := true
		filter.Trashed = &trashed
	case "0":
		trashed := false
		filter.Trashed = &trashed
	}

	files, err := s.app.Service().ListFiles(filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]fileInfoJSON, 0, len(files))
	for _, f := range files {
		out = append(out, toFileInfoJSON(f))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}

	folderID := r.FormValue("folder")
	if folderID == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "folder id required"})
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}
	defer part.Close()

	file, err := s.app.Service().UploadFile(
		folderID,
		header.Filename,
		header.Header.Get("Content-Type"),
		part,
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFileJSON(file))
}

func (s *Server) handleCreateEmptyFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid form"})
		return
	}

	file, err := s.app.Service().CreateTextFile(
		r.FormValue("folder"),
		r.FormValue("filename"),
		r.FormValue("content"),
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFileJSON(file))
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	file, rc, err := s.app.Service().OpenFile(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("streaming file", "id", file.ID, "error", err)
	}
}

func (s *Server) handleTrashFile(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Service().TrashFile(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleRestoreFile(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Service().RestoreFile(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Service().DeleteFilePermanent(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleRenameFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	file, err := s.app.Service().RenameFile(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFileJSON(file))
}

func (s *Server) handleMoveFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	file, err := s.app.Service().MoveFile(chi.URLParam(r, "id"), req.Folder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFileJSON(file))
}
