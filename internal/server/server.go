// Package server exposes the drive service over HTTP. Handlers are thin:
// they decode the request, call the service, and map the result or the
// typed error onto the wire.
package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"minicloud/internal/app"
	"minicloud/internal/drive"
)

// defaultMaxUploadBytes caps multipart request bodies when the config
// does not set a limit.
const defaultMaxUploadBytes = 256 << 20

// Server holds the HTTP handler state.
type Server struct {
	app       *app.App
	logger    drive.Logger
	maxUpload int64
}

// New creates a Server around the given application.
func New(a *app.App, logger drive.Logger) *Server {
	maxUpload := a.Config().HTTP.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Server{app: a, logger: logger, maxUpload: maxUpload}
}

// Router builds the chi router with all API routes and, when configured,
// the static frontend.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/folders", s.handleListFolders)
		r.Post("/folders", s.handleCreateFolder)
		r.Get("/folders/{id}", s.handleGetFolder)
		r.Post("/folders/{id}/delete", s.handleDeleteFolder)
		r.Delete("/folders/{id}/delete", s.handleDeleteFolder)

		r.Get("/files", s.handleListFiles)
		r.Post("/files", s.handleUploadFile)
		r.Post("/files/create-empty", s.handleCreateEmptyFile)
		r.Get("/files/{id}/download", s.handleDownloadFile)
		r.Post("/files/{id}/trash", s.handleTrashFile)
		r.Post("/files/{id}/restore", s.handleRestoreFile)
		r.Delete("/files/{id}/delete", s.handleDeleteFile)
		r.Post("/files/{id}/rename", s.handleRenameFile)
		r.Post("/files/{id}/move", s.handleMoveFile)

		r.Get("/backup/export", s.handleBackupExport)
		r.Post("/backup/import", s.handleBackupImport)

		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handleUpdateSettings)
		r.Post("/settings/wallpaper", s.handleWallpaper)

		r.Get("/gdpr/erase", s.handleErase)
		r.Get("/logs", s.handleLogs)
		r.Get("/search", s.handleSearch)
		r.Get("/system", s.handleSystem)
	})

	if dir := s.app.Config().HTTP.FrontendDir; dir != "" {
		r.NotFound(s.frontendHandler(dir))
	}
	return r
}

// frontendHandler serves static files from dir, falling back to
// index.html for paths that do not match a file.
func (s *Server) frontendHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
