// Package search implements the thin fan-out search: local filename
// matches plus best-effort lookups against a web search engine and a
// video search mirror.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"minicloud/internal/drive"
	"minicloud/internal/model"
)

// remoteTimeout bounds each remote lookup. The fan-out must never make a
// local search slow because a mirror is down.
const remoteTimeout = 3 * time.Second

// Link is a single remote search result.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Results is the combined fan-out response. Remote sections are empty
// when their endpoint is unconfigured or unreachable.
type Results struct {
	Local []*model.FileInfo `json:"local"`
	Web   []Link            `json:"web"`
	Video []Link            `json:"video"`
}

// FileLister is the slice of the drive service the fan-out needs.
type FileLister interface {
	ListFiles(filter drive.FileFilter) ([]*model.FileInfo, error)
}

// Fanout queries all configured sources for a term. Remote failures are
// swallowed: they degrade the response, never fail it.
type Fanout struct {
	local         FileLister
	client        *http.Client
	webEndpoint   string
	videoEndpoint string
	logger        drive.Logger
}

// NewFanout creates a Fanout. Empty endpoints disable the corresponding
// remote section.
func NewFanout(local FileLister, webEndpoint, videoEndpoint string, logger drive.Logger) *Fanout {
	return &Fanout{
		local:         local,
		client:        &http.Client{Timeout: remoteTimeout},
		webEndpoint:   webEndpoint,
		videoEndpoint: videoEndpoint,
		logger:        logger,
	}
}

// Search runs the fan-out for the given term. Only the local lookup can
// return an error.
func (f *Fanout) Search(ctx context.Context, q string) (*Results, error) {
	local, err := f.local.ListFiles(drive.FileFilter{Query: q})
	if err != nil {
		return nil, fmt.Errorf("searching local files: %w", err)
	}

	results := &Results{Local: local}
	results.Web = f.lookupRemote(ctx, f.webEndpoint, q)
	results.Video = f.lookupRemote(ctx, f.videoEndpoint, q)
	return results, nil
}

// lookupRemote queries one endpoint, expecting a JSON array of links.
// Any failure yields an empty section.
func (f *Fanout) lookupRemote(ctx context.Context, endpoint, q string) []Link {
	if endpoint == "" {
		return nil
	}

	reqURL := endpoint + "?q=" + url.QueryEscape(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		f.logger.Warn("building search request", "endpoint", endpoint, "error", err)
		return nil
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("remote search failed", "endpoint", endpoint, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("remote search failed", "endpoint", endpoint, "status", resp.StatusCode)
		return nil
	}

	var links []Link
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		f.logger.Warn("decoding remote search response", "endpoint", endpoint, "error", err)
		return nil
	}
	return links
}
