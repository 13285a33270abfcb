package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

const maxRequestBody = 1 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"invalid url"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// IngestRequest is the body of POST /api/v1/videos
type IngestRequest struct {
	URL string `json:"url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
}

// IngestResponse reports the id of the stored video, or -1 with an error
// @Description Ingestion result
type IngestResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id" example:"42"`
	Error   string `json:"error,omitempty"`
}

// SearchResponse is the body of GET /api/v1/videos/search
// @Description Caption search results grouped per video
type SearchResponse struct {
	Success      bool                         `json:"success"`
	Query        string                       `json:"query"`
	TotalMatches int                          `json:"totalMatches"`
	Videos       []*domain.SearchResultBucket `json:"videos"`
}

// ListVideosResponse is the body of GET /api/v1/videos
type ListVideosResponse struct {
	Success bool                   `json:"success"`
	Videos  []*domain.VideoSummary `json:"videos"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns ready once the store (and Redis, when configured) answer a ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  StatusResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "component", "store", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "component", "redis", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Video endpoints

// handleIngestVideo godoc
// @Summary      Ingest a video
// @Description  Fetch metadata and captions for a video URL and make its captions searchable
// @Tags         Videos
// @Accept       json
// @Produce      json
// @Param        request  body      IngestRequest  true  "Video URL"
// @Success      201      {object}  IngestResponse
// @Failure      400      {object}  IngestResponse  "Invalid URL or body"
// @Failure      404      {object}  IngestResponse  "Video or channel not found"
// @Failure      409      {object}  IngestResponse  "Already being ingested"
// @Failure      422      {object}  IngestResponse  "No usable captions"
// @Failure      502      {object}  IngestResponse  "Video platform error"
// @Failure      503      {object}  IngestResponse  "Store unavailable"
// @Failure      504      {object}  IngestResponse  "Ingestion timed out"
// @Router       /videos [post]
func (s *Server) handleIngestVideo(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, IngestResponse{ID: -1, Error: "invalid request body"})
		return
	}

	result, err := s.ingestionService.Ingest(r.Context(), req.URL)
	if err != nil {
		status, message := ingestErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("ingestion failed", "url", req.URL, "error", err)
		} else {
			s.logger.Info("ingestion rejected", "url", req.URL, "error", err)
		}
		writeJSON(w, status, IngestResponse{ID: -1, Error: message})
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{Success: true, ID: result.VideoID})
}

func ingestErrorStatus(err error) (int, string) {
	var unavailable *domain.CaptionsUnavailableError
	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid video url"
	case errors.Is(err, domain.ErrIngestInProgress):
		return http.StatusConflict, "video is already being ingested"
	case errors.As(err, &unavailable):
		return http.StatusUnprocessableEntity, "captions unavailable (" + string(unavailable.Reason) + ")"
	case errors.Is(err, domain.ErrCaptionsUnavailable):
		return http.StatusUnprocessableEntity, "captions unavailable"
	case errors.Is(err, domain.ErrMalformedCaptions):
		return http.StatusUnprocessableEntity, "captions could not be parsed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "ingestion timed out"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "video not found"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "video platform request failed"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	default:
		return http.StatusInternalServerError, "ingestion failed"
	}
}

// handleSearchVideos godoc
// @Summary      Search captions
// @Description  Find caption snippets containing every word of text, grouped per video, newest first
// @Tags         Videos
// @Produce      json
// @Param        text  query     string  true  "Search words"
// @Success      200   {object}  SearchResponse
// @Failure      400   {object}  ErrorResponse  "Empty query"
// @Failure      503   {object}  ErrorResponse  "Store unavailable"
// @Router       /videos/search [get]
func (s *Server) handleSearchVideos(w http.ResponseWriter, r *http.Request) {
	resp, err := s.searchService.Search(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "text is required")
		case errors.Is(err, domain.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "search unavailable")
		default:
			s.logger.Error("search failed", "error", err)
			writeError(w, http.StatusInternalServerError, "search failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Success:      true,
		Query:        resp.Query,
		TotalMatches: resp.TotalMatches,
		Videos:       resp.Videos,
	})
}

// handleListVideos godoc
// @Summary      List videos
// @Description  Most recently ingested videos with a caption preview
// @Tags         Videos
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of videos (max 50)"
// @Success      200    {object}  ListVideosResponse
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Router       /videos [get]
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	videos, err := s.ingestionService.ListVideos(r.Context(), limit)
	if err != nil {
		s.logger.Error("list videos failed", "error", err)
		if errors.Is(err, domain.ErrStoreUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	if videos == nil {
		videos = []*domain.VideoSummary{}
	}

	writeJSON(w, http.StatusOK, ListVideosResponse{Success: true, Videos: videos})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
