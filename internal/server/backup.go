package server

import (
	"io"
	"net/http"
	"os"
)

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	name := s.app.BackupFilename()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	if err := s.app.ExportBackup(w); err != nil {
		// Headers are gone; all we can do is log and cut the stream.
		s.logger.Error("exporting backup", "error", err)
	}
}

func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}

	part, _, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}
	defer part.Close()

	tmp, err := os.CreateTemp("", "minicloud-import-*.zip")
	if err != nil {
		s.writeError(w, err)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, part); err != nil {
		tmp.Close()
		s.writeError(w, err)
		return
	}
	tmp.Close()

	if err := s.app.ImportBackup(tmpPath); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}
