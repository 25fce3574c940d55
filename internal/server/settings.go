package server

import (
	"encoding/json"
	"net/http"
	"strings"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.app.Service().GetSettings()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	stringified := make(map[string]string, len(values))
	for k, v := range values {
		stringified[k] = stringify(v)
	}

	if err := s.app.Service().UpsertSettings(stringified); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}

// stringify flattens arbitrary JSON values to the settings store's
// string representation.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// handleWallpaper accepts either a multipart image (stored as a regular
// file in the root folder, with the "wallpaper" setting pointing at its
// download URL) or a JSON {color} body (stored as "wallpaper_color").
func (s *Server) handleWallpaper(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.handleWallpaperUpload(w, r)
		return
	}

	var req struct {
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Color == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}

	if err := s.app.Service().UpsertSettings(map[string]string{"wallpaper_color": req.Color}); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}

func (s *Server) handleWallpaperUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "no file"})
		return
	}
	defer part.Close()

	root, err := s.app.Service().RootFolder()
	if err != nil {
		s.writeError(w, err)
		return
	}

	file, err := s.app.Service().UploadFile(root.ID, header.Filename, header.Header.Get("Content-Type"), part)
	if err != nil {
		s.writeError(w, err)
		return
	}

	url := "/api/files/" + file.ID + "/download"
	if err := s.app.Service().UpsertSettings(map[string]string{"wallpaper": url}); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "wallpaper": url})
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Service().EraseAll(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeOK(w)
}
