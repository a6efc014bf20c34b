package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
)

// Mock services for testing

type mockEngineService struct {
	state   domain.EngineState
	statsFn func(ctx context.Context) (*domain.EngineStats, error)
}

func (m *mockEngineService) Initialize(ctx context.Context) error { return nil }

func (m *mockEngineService) State() domain.EngineState {
	if m.state == "" {
		return domain.EngineReady
	}
	return m.state
}

func (m *mockEngineService) Stats(ctx context.Context) (*domain.EngineStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &domain.EngineStats{State: m.State()}, nil
}

func (m *mockEngineService) Close(ctx context.Context) error { return nil }

type mockSearchService struct {
	searchFn   func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
	loadMoreFn func(ctx context.Context, query string, cutoff float64) (*domain.SearchResult, error)
}

func (m *mockSearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, opts)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSearchService) LoadMore(ctx context.Context, query string, cutoff float64) (*domain.SearchResult, error) {
	if m.loadMoreFn != nil {
		return m.loadMoreFn(ctx, query, cutoff)
	}
	return nil, errors.New("not implemented")
}

type mockDocumentService struct {
	ingestFn func(ctx context.Context, req domain.IngestRequest) (int64, error)
	updateFn func(ctx context.Context, id int64, req domain.UpdateDocumentRequest) (*domain.Document, error)
	deleteFn func(ctx context.Context, id int64) error
	getFn    func(ctx context.Context, id int64) (*domain.Document, error)
	existsFn func(ctx context.Context, url string) (bool, error)
	chunksFn func(ctx context.Context, id int64) ([]*domain.Chunk, error)
	recentFn func(ctx context.Context, limit int) ([]domain.DocumentSummary, error)
}

func (m *mockDocumentService) Ingest(ctx context.Context, req domain.IngestRequest) (int64, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, req)
	}
	return 0, errors.New("not implemented")
}

func (m *mockDocumentService) Update(ctx context.Context, id int64, req domain.UpdateDocumentRequest) (*domain.Document, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockDocumentService) Get(ctx context.Context, id int64) (*domain.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Exists(ctx context.Context, url string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, url)
	}
	return false, nil
}

func (m *mockDocumentService) Chunks(ctx context.Context, id int64) ([]*domain.Chunk, error) {
	if m.chunksFn != nil {
		return m.chunksFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocumentService) Recent(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockDocumentService) Reindex(ctx context.Context) (int, error) { return 0, nil }

type mockExclusionService struct {
	rules   domain.ExclusionRules
	saveFn  func(ctx context.Context, rules domain.ExclusionRules) (*domain.SweepResult, error)
	folders []*domain.BookmarkFolder
}

func (m *mockExclusionService) GetRules(ctx context.Context) (domain.ExclusionRules, error) {
	return m.rules, nil
}

func (m *mockExclusionService) SaveRules(ctx context.Context, rules domain.ExclusionRules) (*domain.SweepResult, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, rules)
	}
	m.rules = rules
	return &domain.SweepResult{}, nil
}

func (m *mockExclusionService) Folders(ctx context.Context) ([]*domain.BookmarkFolder, error) {
	return m.folders, nil
}

type mockCaptureService struct {
	captureFn func(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error)
}

func (m *mockCaptureService) Capture(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error) {
	if m.captureFn != nil {
		return m.captureFn(ctx, req)
	}
	method := req.ExtractionMethod
	if method == "" {
		method = domain.DefaultExtractionMethod
	}
	return &domain.CaptureResult{DocumentID: 1, Message: "Document added successfully.", ExtractionMethod: method}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

type testServices struct {
	engine    *mockEngineService
	search    *mockSearchService
	docs      *mockDocumentService
	exclusion *mockExclusionService
	capture   *mockCaptureService
}

func newTestServer(cfg Config, db, redis Pinger) (*Server, *testServices) {
	svcs := &testServices{
		engine:    &mockEngineService{},
		search:    &mockSearchService{},
		docs:      &mockDocumentService{},
		exclusion: &mockExclusionService{},
		capture:   &mockCaptureService{},
	}
	srv := NewServer(cfg, svcs.engine, svcs.search, svcs.docs, svcs.exclusion, svcs.capture, db, redis)
	return srv, svcs
}

func do(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(DefaultConfig(), nil, nil)

	rec := do(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
}

func TestHandleReady(t *testing.T) {
	tests := []struct {
		name       string
		state      domain.EngineState
		db         Pinger
		redis      Pinger
		wantStatus int
		wantRetry  string
	}{
		{"ready", domain.EngineReady, &mockPinger{}, &mockPinger{}, http.StatusOK, ""},
		{"ready without redis", domain.EngineReady, &mockPinger{}, nil, http.StatusOK, ""},
		{"initializing", domain.EngineInitializing, &mockPinger{}, nil, http.StatusServiceUnavailable, "2"},
		{"failed", domain.EngineError, &mockPinger{}, nil, http.StatusServiceUnavailable, ""},
		{"database down", domain.EngineReady, &mockPinger{err: errors.New("refused")}, nil, http.StatusServiceUnavailable, ""},
		{"redis down", domain.EngineReady, &mockPinger{}, &mockPinger{err: errors.New("refused")}, http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svcs := newTestServer(DefaultConfig(), tt.db, tt.redis)
			svcs.engine.state = tt.state

			rec := do(t, srv, http.MethodGet, "/ready", nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("expected Retry-After %q, got %q", tt.wantRetry, got)
			}

			var resp ReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Checks["engine"] != string(tt.state) {
				t.Errorf("expected engine check %s, got %s", tt.state, resp.Checks["engine"])
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	srv, _ := newTestServer(cfg, nil, nil)

	rec := do(t, srv, http.MethodGet, "/version", nil)
	var resp VersionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", resp.Version)
	}
}

// Capture endpoint

func TestHandleCapture_Success(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	var got domain.CaptureRequest
	svcs.capture.captureFn = func(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error) {
		got = req
		return &domain.CaptureResult{DocumentID: 7, Message: "Document added successfully.", ExtractionMethod: "dom"}, nil
	}

	rec := do(t, srv, http.MethodPost, "/documents",
		[]byte(`{"title":"T","content":"C","url":"https://a.example","extractionMethod":"dom"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.URL != "https://a.example" || got.ExtractionMethod != "dom" {
		t.Errorf("unexpected request passed to service: %+v", got)
	}

	var resp domain.CaptureResult
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DocumentID != 7 || resp.ExtractionMethod != "dom" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleCapture_PayloadTooLarge(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	called := false
	svcs.capture.captureFn = func(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error) {
		called = true
		return nil, nil
	}

	content := strings.Repeat("a", 11*1024*1024)
	body := []byte(fmt.Sprintf(`{"title":"big","content":%q}`, content))

	rec := do(t, srv, http.MethodPost, "/documents", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if called {
		t.Error("service must not be called for oversized payloads")
	}

	var resp CaptureErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != domain.CodePayloadTooLarge {
		t.Errorf("expected code %s, got %s", domain.CodePayloadTooLarge, resp.Code)
	}
}

func TestHandleCapture_ChunkedBodyOverLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPayloadBytes = 64
	srv, _ := newTestServer(cfg, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/documents",
		strings.NewReader(`{"title":"t","content":"`+strings.Repeat("x", 200)+`"}`))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestHandleCapture_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantRetry   string
		wantMessage string
	}{
		{
			name:        "missing title",
			err:         fmt.Errorf("%w: title and content are required", domain.ErrValidation),
			wantStatus:  http.StatusBadRequest,
			wantCode:    domain.CodeValidation,
			wantMessage: "title and content are required",
		},
		{
			name:       "initializing",
			err:        domain.ErrNotReady,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   domain.CodeNotReady,
			wantRetry:  "2",
		},
		{
			name:       "excluded",
			err:        fmt.Errorf("%w: domain rule", domain.ErrExcluded),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   domain.CodeExcluded,
		},
		{
			name:       "embedding backend down",
			err:        domain.ErrBackendUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   domain.CodeBackendUnavailable,
			wantRetry:  "10",
		},
		{
			name:        "storage failure is not echoed",
			err:         fmt.Errorf("%w: pq: relation \"documents\" does not exist", domain.ErrStorage),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    domain.CodeStorage,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svcs := newTestServer(DefaultConfig(), nil, nil)
			svcs.capture.captureFn = func(ctx context.Context, req domain.CaptureRequest) (*domain.CaptureResult, error) {
				return nil, tt.err
			}

			rec := do(t, srv, http.MethodPost, "/documents", domain.CaptureRequest{Title: "t", Content: "c"})
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("expected Retry-After %q, got %q", tt.wantRetry, got)
			}

			var resp CaptureErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if tt.wantMessage != "" && resp.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, resp.Message)
			}
		})
	}
}

func TestHandleCapture_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(DefaultConfig(), nil, nil)

	rec := do(t, srv, http.MethodPost, "/documents", []byte(`{not json`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// Document endpoints

func TestHandleIngest(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.docs.ingestFn = func(ctx context.Context, req domain.IngestRequest) (int64, error) {
		if req.Title != "Notes" {
			t.Errorf("unexpected title %q", req.Title)
		}
		return 42, nil
	}

	rec := do(t, srv, http.MethodPost, "/api/v1/documents", domain.IngestRequest{Title: "Notes", Content: "body"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 42 {
		t.Errorf("expected id 42, got %d", resp.ID)
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.docs.getFn = func(ctx context.Context, id int64) (*domain.Document, error) {
		if id == 5 {
			return &domain.Document{ID: 5, Title: "Five"}, nil
		}
		return nil, domain.ErrNotFound
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/documents/5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/documents/6", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/documents/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUpdateDocument(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.docs.updateFn = func(ctx context.Context, id int64, req domain.UpdateDocumentRequest) (*domain.Document, error) {
		return &domain.Document{ID: id, Title: req.Title, Content: req.Content}, nil
	}

	rec := do(t, srv, http.MethodPut, "/api/v1/documents/3", domain.UpdateDocumentRequest{Title: "New", Content: "text"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var doc domain.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.ID != 3 || doc.Title != "New" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	var deleted int64
	svcs.docs.deleteFn = func(ctx context.Context, id int64) error {
		deleted = id
		return nil
	}

	rec := do(t, srv, http.MethodDelete, "/api/v1/documents/9", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if deleted != 9 {
		t.Errorf("expected id 9 deleted, got %d", deleted)
	}
}

func TestHandleRecentDocuments(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	var gotLimit int
	svcs.docs.recentFn = func(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
		gotLimit = limit
		return nil, nil
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/documents/recent?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 5 {
		t.Errorf("expected limit 5, got %d", gotLimit)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/documents/recent?limit=many", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDocumentExists(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.docs.existsFn = func(ctx context.Context, url string) (bool, error) {
		return url == "https://a.example/post", nil
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/documents/exists?url=https://a.example/post", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp ExistsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Exists {
		t.Error("expected exists")
	}
}

func TestHandleDocumentExists_MissingURL(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.docs.existsFn = func(ctx context.Context, url string) (bool, error) {
		return false, fmt.Errorf("%w: url is required", domain.ErrValidation)
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/documents/exists", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "url is required" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
}

func TestHandleGetDocumentChunks(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.docs.chunksFn = func(ctx context.Context, id int64) ([]*domain.Chunk, error) {
		return []*domain.Chunk{{ID: 1, DocumentID: id, Ordinal: 0}, {ID: 2, DocumentID: id, Ordinal: 1}}, nil
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/documents/4/chunks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var chunks []domain.Chunk
	if err := json.NewDecoder(rec.Body).Decode(&chunks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(chunks) != 2 || chunks[1].Ordinal != 1 {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

// Search endpoints

func TestHandleSearch(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	var gotOpts domain.SearchOptions
	svcs.search.searchFn = func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
		gotOpts = opts
		return &domain.SearchResult{Query: query, Cutoff: 0.42, Adaptive: opts.Cutoff == nil}, nil
	}

	rec := do(t, srv, http.MethodPost, "/api/v1/search", SearchRequest{Query: "rust ownership"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotOpts.Cutoff != nil {
		t.Error("missing cutoff must select the adaptive threshold")
	}

	cutoff := 0.6
	rec = do(t, srv, http.MethodPost, "/api/v1/search", SearchRequest{Query: "rust", Cutoff: &cutoff})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotOpts.Cutoff == nil || *gotOpts.Cutoff != 0.6 {
		t.Errorf("expected explicit cutoff 0.6, got %v", gotOpts.Cutoff)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty query", fmt.Errorf("%w: query is required", domain.ErrValidation), http.StatusBadRequest},
		{"not ready", domain.ErrNotReady, http.StatusServiceUnavailable},
		{"engine failed", domain.ErrEngineFailed, http.StatusServiceUnavailable},
		{"dimension mismatch", fmt.Errorf("%w: got 384 dims", domain.ErrConfiguration), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svcs := newTestServer(DefaultConfig(), nil, nil)
			svcs.search.searchFn = func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
				return nil, tt.err
			}

			rec := do(t, srv, http.MethodPost, "/api/v1/search", SearchRequest{Query: "q"})
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != domain.ErrorCode(tt.err) {
				t.Errorf("expected code %s, got %s", domain.ErrorCode(tt.err), resp.Code)
			}
		})
	}
}

func TestHandleLoadMore(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.search.loadMoreFn = func(ctx context.Context, query string, cutoff float64) (*domain.SearchResult, error) {
		return &domain.SearchResult{Query: query, Cutoff: domain.LowerCutoff(cutoff, 0.1)}, nil
	}

	rec := do(t, srv, http.MethodPost, "/api/v1/search/more", LoadMoreRequest{Query: "rust", Cutoff: 0.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result domain.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Cutoff != 0.4 {
		t.Errorf("expected cutoff 0.4, got %v", result.Cutoff)
	}
}

// Exclusion endpoints

func TestHandleExclusions(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.exclusion.saveFn = func(ctx context.Context, rules domain.ExclusionRules) (*domain.SweepResult, error) {
		if len(rules.Domains) != 1 || rules.Domains[0] != "*.example.com" {
			t.Errorf("unexpected rules: %+v", rules)
		}
		svcs.exclusion.rules = rules
		return &domain.SweepResult{Removed: 3, Reeligible: 1}, nil
	}

	rec := do(t, srv, http.MethodPut, "/api/v1/exclusions",
		[]byte(`{"excluded_folders":[],"excluded_domains":["*.example.com"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var sweep domain.SweepResult
	if err := json.NewDecoder(rec.Body).Decode(&sweep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sweep.Removed != 3 || sweep.Reeligible != 1 {
		t.Errorf("unexpected sweep: %+v", sweep)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/exclusions", nil)
	var rules domain.ExclusionRules
	if err := json.NewDecoder(rec.Body).Decode(&rules); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rules.Domains) != 1 {
		t.Errorf("expected saved domain rule, got %+v", rules)
	}
}

func TestHandleSaveExclusions_InvalidPattern(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.exclusion.saveFn = func(ctx context.Context, rules domain.ExclusionRules) (*domain.SweepResult, error) {
		return nil, fmt.Errorf("%w: pattern %q contains a path", domain.ErrValidation, "a.com/x")
	}

	rec := do(t, srv, http.MethodPut, "/api/v1/exclusions", domain.ExclusionRules{Domains: []string{"a.com/x"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleListFolders(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/bookmarks/folders", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}

	svcs.exclusion.folders = []*domain.BookmarkFolder{{ID: "1", Name: "Bookmarks bar", Path: []string{"Bookmarks bar"}, Count: 4}}
	rec = do(t, srv, http.MethodGet, "/api/v1/bookmarks/folders", nil)

	var folders []domain.BookmarkFolder
	if err := json.NewDecoder(rec.Body).Decode(&folders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(folders) != 1 || folders[0].Count != 4 {
		t.Errorf("unexpected folders: %+v", folders)
	}
}

func TestHandleStats(t *testing.T) {
	srv, svcs := newTestServer(DefaultConfig(), nil, nil)
	svcs.engine.statsFn = func(ctx context.Context) (*domain.EngineStats, error) {
		return &domain.EngineStats{State: domain.EngineReady, Documents: 2, IndexedChunks: 5}, nil
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/stats", nil)
	var stats domain.EngineStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Documents != 2 || stats.IndexedChunks != 5 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(DefaultConfig(), nil, nil)

	do(t, srv, http.MethodGet, "/health", nil)
	rec := do(t, srv, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "localmind_http_requests_total") {
		t.Error("expected http request counter in metrics output")
	}
}
