package server

import (
	"net/http"

	"minicloud/internal/search"
	"minicloud/internal/sysinfo"
)

// logLimit is the number of activity entries returned by /api/logs.
const logLimit = 500

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.app.Service().RecentLogs(logLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]logJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, logJSON{ID: e.ID, Action: e.Action, Details: e.Details, CreatedAt: e.CreatedAt})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "q required"})
		return
	}

	results, err := s.app.Fanout().Search(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	local := make([]fileInfoJSON, 0, len(results.Local))
	for _, f := range results.Local {
		local = append(local, toFileInfoJSON(f))
	}
	web, video := results.Web, results.Video
	if web == nil {
		web = []search.Link{}
	}
	if video == nil {
		video = []search.Link{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"local": local,
		"web":   web,
		"video": video,
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	snap := sysinfo.Collect(s.app.StartedAt(), s.app.Config().DataDir)
	s.writeJSON(w, http.StatusOK, snap)
}
