package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/sitegest/internal/pipeline"
	"github.com/dgallion1/sitegest/internal/sitemap"
	"github.com/dgallion1/sitegest/internal/webbase"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := s.orchestrator.Check(req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(req)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/sitemaps/%s/status", job.ID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleDocuments returns the documents of a completed job. The body is
// stable for a finished job, so it is served with an ETag.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  fmt.Sprintf("job is %s", snap.Status),
			"status": snap.Status,
			"errors": snap.Progress.Errors,
		})
		return
	}

	docs := job.Documents()
	if docs == nil {
		docs = []sitemap.Document{}
	}
	body, err := json.Marshal(map[string]any{
		"job_id":    snap.ID,
		"count":     len(docs),
		"documents": docs,
	})
	if err != nil {
		s.log.Error("encode documents", zap.String("job_id", snap.ID), zap.Error(err))
		jsonError(w, "failed to encode documents", http.StatusInternalServerError)
		return
	}

	etag := `"` + pipeline.ContentHashHex(body)[:32] + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleLocations walks the sitemap synchronously and returns its location
// records without fetching any page.
func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := s.orchestrator.Check(req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	recs, err := s.orchestrator.Locations(r.Context(), req)
	if err != nil {
		s.log.Warn("list locations", zap.String("sitemap", req.SitemapURL), zap.Error(err))
		jsonError(w, err.Error(), errorStatus(err))
		return
	}
	if recs == nil {
		recs = []sitemap.LocationRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sitemap_url": req.SitemapURL,
		"count":       len(recs),
		"locations":   recs,
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	var req pipeline.Request
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		jsonError(w, "failed to read request body", http.StatusRequestEntityTooLarge)
		return req, false
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// errorStatus maps walker errors to HTTP status codes.
func errorStatus(err error) int {
	var cfgErr *sitemap.ConfigError
	var fetchErr *webbase.FetchError
	var parseErr *webbase.ParseError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
