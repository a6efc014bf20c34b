package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
	Code  string `json:"code" example:"validation_error"`
}

// CaptureErrorResponse is the error body of the browser capture endpoint
// @Description Capture error response
type CaptureErrorResponse struct {
	Message string `json:"message" example:"title and content are required"`
	Code    string `json:"code" example:"validation_error"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports engine and backing service readiness
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// IngestResponse acknowledges a stored document
// @Description Ingest response
type IngestResponse struct {
	ID int64 `json:"id" example:"42"`
}

// ExistsResponse reports whether a URL was already ingested
// @Description Duplicate URL lookup response
type ExistsResponse struct {
	URL    string `json:"url"`
	Exists bool   `json:"exists"`
}

// SearchRequest is the body of a search call. A missing cutoff selects
// the adaptive threshold.
// @Description Search request
type SearchRequest struct {
	Query  string   `json:"query" example:"rust ownership"`
	Cutoff *float64 `json:"cutoff,omitempty" example:"0.4"`
}

// LoadMoreRequest lowers the cutoff of a previous search
// @Description Load more request
type LoadMoreRequest struct {
	Query  string  `json:"query" example:"rust ownership"`
	Cutoff float64 `json:"cutoff" example:"0.4"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the liveness status of the process
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Reports engine state and checks database and redis connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	state := s.engineService.State()
	resp.Checks["engine"] = string(state)
	if state != domain.EngineReady {
		status = http.StatusServiceUnavailable
		if state == domain.EngineInitializing {
			w.Header().Set("Retry-After", retryAfterSeconds(domain.ErrNotReady))
		}
	}

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Warn("database ping failed", "error", err)
			resp.Checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "ok"
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			s.logger.Warn("redis ping failed", "error", err)
			resp.Checks["redis"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["redis"] = "ok"
		}
	}

	if status != http.StatusOK {
		resp.Status = "not_ready"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Capture endpoint

// handleCapture godoc
// @Summary      Capture a page
// @Description  Accepts a page from the browser capture client. Video pages get their transcript substituted.
// @Tags         Capture
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CaptureRequest  true  "Captured page"
// @Success      200      {object}  domain.CaptureResult
// @Failure      400      {object}  CaptureErrorResponse  "Missing title or content"
// @Failure      413      {object}  CaptureErrorResponse  "Payload over the size limit"
// @Failure      422      {object}  CaptureErrorResponse  "URL matches an exclusion rule"
// @Failure      503      {object}  CaptureErrorResponse  "Engine still initializing"
// @Router       /documents [post]
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req domain.CaptureRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeCaptureError(w, r, err)
		return
	}

	result, err := s.captureService.Capture(r.Context(), req)
	if err != nil {
		s.writeCaptureError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Document endpoints

// handleIngest godoc
// @Summary      Ingest a document
// @Description  Chunks, embeds and stores a document. Nothing is searchable unless every step succeeds.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      domain.IngestRequest  true  "Document"
// @Success      201      {object}  IngestResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /api/v1/documents [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	id, err := s.docService.Ingest(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, IngestResponse{ID: id})
}

// handleRecentDocuments godoc
// @Summary      List recent documents
// @Tags         Documents
// @Produce      json
// @Param        limit  query     int  false  "Maximum documents (default 20, max 100)"
// @Success      200    {array}   domain.DocumentSummary
// @Router       /api/v1/documents/recent [get]
func (s *Server) handleRecentDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", domain.CodeValidation)
			return
		}
		limit = n
	}

	docs, err := s.docService.Recent(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleDocumentExists godoc
// @Summary      Check whether a URL was captured
// @Description  Reports whether an active document was ingested from the given URL
// @Tags         Documents
// @Produce      json
// @Param        url  query     string  true  "Source URL"
// @Success      200  {object}  ExistsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /api/v1/documents/exists [get]
func (s *Server) handleDocumentExists(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")

	exists, err := s.docService.Exists(r.Context(), url)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ExistsResponse{URL: url, Exists: exists})
}

// handleGetDocument godoc
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	doc, err := s.docService.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateDocument godoc
// @Summary      Edit a document
// @Description  Replaces title and content, then re-chunks and re-embeds
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id       path      int                           true  "Document ID"
// @Param        request  body      domain.UpdateDocumentRequest  true  "New title and content"
// @Success      200      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/documents/{id} [put]
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateDocumentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	doc, err := s.docService.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Tags         Documents
// @Param        id   path  int  true  "Document ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := s.docService.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetDocumentChunks godoc
// @Summary      List document chunks
// @Tags         Documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {array}   domain.Chunk
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/documents/{id}/chunks [get]
func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	chunks, err := s.docService.Chunks(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if chunks == nil {
		chunks = []*domain.Chunk{}
	}

	writeJSON(w, http.StatusOK, chunks)
}

// Search endpoints

// handleSearch godoc
// @Summary      Semantic search
// @Description  Returns one hit per document at or above the cutoff. Without a cutoff the adaptive threshold is used.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      SearchRequest  true  "Query"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse  "Engine not ready or embedding backend unavailable"
// @Router       /api/v1/search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.searchService.Search(r.Context(), req.Query, domain.SearchOptions{Cutoff: req.Cutoff})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleLoadMore godoc
// @Summary      Load more results
// @Description  Lowers the cutoff by one step and re-filters the cached candidates of the same query
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      LoadMoreRequest  true  "Query and current cutoff"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse
// @Router       /api/v1/search/more [post]
func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	var req LoadMoreRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.searchService.LoadMore(r.Context(), req.Query, req.Cutoff)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Exclusion endpoints

// handleGetExclusions godoc
// @Summary      Get exclusion rules
// @Tags         Exclusions
// @Produce      json
// @Success      200  {object}  domain.ExclusionRules
// @Router       /api/v1/exclusions [get]
func (s *Server) handleGetExclusions(w http.ResponseWriter, r *http.Request) {
	rules, err := s.exclusionService.GetRules(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rules)
}

// handleSaveExclusions godoc
// @Summary      Save exclusion rules
// @Description  Validates every pattern, saves the rules and removes documents that now match
// @Tags         Exclusions
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ExclusionRules  true  "Folder ids and domain patterns"
// @Success      200      {object}  domain.SweepResult
// @Failure      400      {object}  ErrorResponse  "Invalid pattern"
// @Router       /api/v1/exclusions [put]
func (s *Server) handleSaveExclusions(w http.ResponseWriter, r *http.Request) {
	var rules domain.ExclusionRules
	if err := s.decodeJSON(w, r, &rules); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.exclusionService.SaveRules(r.Context(), rules)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListFolders godoc
// @Summary      List bookmark folders
// @Tags         Exclusions
// @Produce      json
// @Success      200  {array}  domain.BookmarkFolder
// @Router       /api/v1/bookmarks/folders [get]
func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.exclusionService.Folders(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if folders == nil {
		folders = []*domain.BookmarkFolder{}
	}

	writeJSON(w, http.StatusOK, folders)
}

// handleStats godoc
// @Summary      Engine statistics
// @Tags         Engine
// @Produce      json
// @Success      200  {object}  domain.EngineStats
// @Router       /api/v1/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engineService.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Helpers

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id", domain.CodeValidation)
		return 0, false
	}
	return id, true
}

// decodeJSON reads a JSON body bounded by the configured payload limit
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	limit := s.cfg.MaxPayloadBytes
	if r.ContentLength > limit {
		return fmt.Errorf("%w: body exceeds %d bytes", domain.ErrPayloadTooLarge, limit)
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body exceeds %d bytes", domain.ErrPayloadTooLarge, limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		default:
			return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
		}
	}
	return nil
}

// statusFor maps a service error to an HTTP status and a client-safe message.
// Storage and configuration details never leave the process.
func statusFor(err error) (int, string) {
	code := domain.ErrorCode(err)
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case domain.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge, strings.TrimPrefix(err.Error(), domain.ErrPayloadTooLarge.Error()+": ")
	case domain.CodeExcluded:
		return http.StatusUnprocessableEntity, "url is excluded by an exclusion rule"
	case domain.CodeNotFound:
		return http.StatusNotFound, "not found"
	case domain.CodeNotReady:
		return http.StatusServiceUnavailable, "engine is initializing, retry shortly"
	case domain.CodeBackendUnavailable:
		return http.StatusServiceUnavailable, "embedding backend unavailable"
	case domain.CodeEngineFailed:
		return http.StatusServiceUnavailable, "engine failed to initialize"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) logServiceError(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	s.logServiceError(r, status, err)
	if retry := retryAfterSeconds(err); retry != "" {
		w.Header().Set("Retry-After", retry)
	}
	writeError(w, status, message, domain.ErrorCode(err))
}

func (s *Server) writeCaptureError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	s.logServiceError(r, status, err)
	if retry := retryAfterSeconds(err); retry != "" {
		w.Header().Set("Retry-After", retry)
	}
	writeJSON(w, status, CaptureErrorResponse{Message: message, Code: domain.ErrorCode(err)})
}

func retryAfterSeconds(err error) string {
	d := domain.RetryAfter(err)
	if d <= 0 {
		return ""
	}
	return strconv.Itoa(int(d.Seconds()))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: strings.TrimSpace(message), Code: code})
}
