package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	MockScanID    = "scan-1"
	MockReportURL = "https://app.soos.io/research/projects/p1/branches/b1/scans/scan-1"
	statusPath    = "/api/clients/client-123/projects/p1/branches/b1/scan-types/sca/scans/" + MockScanID
)

// MockSoosService is an httptest server that answers start-analysis and scan
// status requests. Status requests walk through Statuses; the last one repeats.
type MockSoosService struct {
	*httptest.Server

	mu          sync.Mutex
	Statuses    []string
	StartCalls  int
	StatusCalls int
	onRequest   func(r *http.Request)
}

// NewMockSoosService starts the service. onRequest, when set, sees every
// request before it is answered.
func NewMockSoosService(onRequest func(r *http.Request), statuses ...string) *MockSoosService {
	s := &MockSoosService{Statuses: statuses, onRequest: onRequest}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// APIBaseURI is the value to configure as api-base-uri.
func (s *MockSoosService) APIBaseURI() string {
	return s.URL + "/api/"
}

// StatusURL is the scan handle returned by start-analysis.
func (s *MockSoosService) StatusURL() string {
	return s.URL + statusPath
}

func (s *MockSoosService) handle(w http.ResponseWriter, r *http.Request) {
	if s.onRequest != nil {
		s.onRequest(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-soos-request-id", "req-mock")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/scan-types/sca/scans"):
		s.StartCalls++
		writeJSON(w, map[string]string{
			"clientId":      "client-123",
			"projectHash":   "p1",
			"branchHash":    "b1",
			"scanId":        MockScanID,
			"scanStatusUrl": s.StatusURL(),
			"scanUrl":       MockReportURL,
		})
	case r.Method == http.MethodGet && r.URL.Path == statusPath:
		status := "Running"
		if len(s.Statuses) > 0 {
			idx := s.StatusCalls
			if idx >= len(s.Statuses) {
				idx = len(s.Statuses) - 1
			}
			status = s.Statuses[idx]
		}
		s.StatusCalls++
		writeJSON(w, map[string]any{
			"status":          status,
			"violations":      0,
			"vulnerabilities": 2,
			"scanUrl":         MockReportURL,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]string{"code": "NotFound", "message": "no route for " + r.URL.Path})
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	_ = json.NewEncoder(w).Encode(body)
}
