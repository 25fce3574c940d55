package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"minicloud/internal/drive"
	"minicloud/internal/model"
)

// folderJSON is the wire representation of a folder. Disk paths are
// internal and never exposed.
type folderJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type fileJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"filename"`
	Folder    string    `json:"folder"`
	MimeType  string    `json:"mimetype"`
	Size      int64     `json:"size"`
	Trashed   bool      `json:"trashed"`
	CreatedAt time.Time `json:"created_at"`
}

type fileInfoJSON struct {
	fileJSON
	FolderName string `json:"folder_name"`
}

type logJSON struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

func toFolderJSON(f *model.Folder) folderJSON {
	return folderJSON{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt}
}

func toFileJSON(f *model.File) fileJSON {
	return fileJSON{
		ID:        f.ID,
		Name:      f.Name,
		Folder:    f.FolderID,
		MimeType:  f.MimeType,
		Size:      f.Size,
		Trashed:   f.Trashed,
		CreatedAt: f.CreatedAt,
	}
}

func toFileInfoJSON(fi *model.FileInfo) fileInfoJSON {
	return fileInfoJSON{fileJSON: toFileJSON(&fi.File), FolderName: fi.FolderName}
}

// writeJSON writes v as a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", "error", err)
	}
}

// writeOK writes the {"ok": true} success envelope.
func (s *Server) writeOK(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeError maps a service error onto the wire. Typed errors carry
// their own status and code; anything else is an opaque 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validation *drive.ValidationError
	if errors.As(err, &validation) {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": validation.Msg})
		return
	}

	var notFound *drive.NotFoundError
	if errors.As(err, &notFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]any{"error": notFound.Msg})
		return
	}

	var forbidden *drive.ForbiddenError
	if errors.As(err, &forbidden) {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": forbidden.Code})
		return
	}

	var conflict *drive.ConflictError
	if errors.As(err, &conflict) {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "folder_not_empty",
			"count": conflict.Count,
		})
		return
	}

	s.logger.Error("request failed", "error", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}
