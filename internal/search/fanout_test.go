package search_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"minicloud/internal/drive"
	"minicloud/internal/model"
	"minicloud/internal/search"
)

// stubLister returns a fixed result set and records the filter it saw.
type stubLister struct {
	files  []*model.FileInfo
	err    error
	filter drive.FileFilter
}

func (l *stubLister) ListFiles(filter drive.FileFilter) ([]*model.FileInfo, error) {
	l.filter = filter
	return l.files, l.err
}

func TestFanout_Search(t *testing.T) {
	t.Run("combines local and remote sections", func(t *testing.T) {
		web := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "report" {
				t.Errorf("web q = %q, want report", got)
			}
			w.Write([]byte(`[{"title":"Report writing","url":"https://example.com/1"}]`))
		}))
		defer web.Close()

		video := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"title":"Report tutorial","url":"https://example.com/v"}]`))
		}))
		defer video.Close()

		local := &stubLister{files: []*model.FileInfo{
			{File: model.File{ID: "a", Name: "report.txt"}, FolderName: "root"},
		}}

		f := search.NewFanout(local, web.URL, video.URL, drive.NewNopLogger())
		results, err := f.Search(context.Background(), "report")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}

		if local.filter.Query != "report" {
			t.Errorf("local query = %q, want report", local.filter.Query)
		}
		if len(results.Local) != 1 || results.Local[0].ID != "a" {
			t.Errorf("local results = %+v, want [a]", results.Local)
		}
		if len(results.Web) != 1 || results.Web[0].Title != "Report writing" {
			t.Errorf("web results = %+v", results.Web)
		}
		if len(results.Video) != 1 || results.Video[0].URL != "https://example.com/v" {
			t.Errorf("video results = %+v", results.Video)
		}
	})

	t.Run("remote failure yields an empty section", func(t *testing.T) {
		web := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer web.Close()

		f := search.NewFanout(&stubLister{}, web.URL, "", drive.NewNopLogger())
		results, err := f.Search(context.Background(), "x")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results.Web) != 0 {
			t.Errorf("web results = %+v, want empty", results.Web)
		}
	})

	t.Run("unconfigured endpoints are skipped", func(t *testing.T) {
		f := search.NewFanout(&stubLister{}, "", "", drive.NewNopLogger())
		results, err := f.Search(context.Background(), "x")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if results.Web != nil || results.Video != nil {
			t.Errorf("remote sections = %+v / %+v, want nil", results.Web, results.Video)
		}
	})

	t.Run("garbled remote response yields an empty section", func(t *testing.T) {
		web := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"an array"}`))
		}))
		defer web.Close()

		f := search.NewFanout(&stubLister{}, web.URL, "", drive.NewNopLogger())
		results, err := f.Search(context.Background(), "x")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results.Web) != 0 {
			t.Errorf("web results = %+v, want empty", results.Web)
		}
	})
}
