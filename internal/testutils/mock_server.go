package testutils

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockUpstream is an httptest server standing in for the upstream data
// providers. Responses are registered per path and every request is counted,
// so tests can assert how many upstream calls an endpoint resolution made.
type MockUpstream struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]mockResponse
	hits      map[string]int
}

type mockResponse struct {
	status int
	body   string
}

// NewMockUpstream creates a mock upstream server with no registered responses;
// unregistered paths answer 404
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		responses: make(map[string]mockResponse),
		hits:      make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handler))
	return mock
}

// Handle registers a 200 response body for a path
func (m *MockUpstream) Handle(path, body string) {
	m.HandleStatus(path, http.StatusOK, body)
}

// HandleStatus registers a response with an explicit status for a path
func (m *MockUpstream) HandleStatus(path string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = mockResponse{status: status, body: body}
}

// URL returns the mock server base URL
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// Hits returns how many requests a path has received
func (m *MockUpstream) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// TotalHits returns how many requests the server has received in total
func (m *MockUpstream) TotalHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, count := range m.hits {
		total += count
	}
	return total
}

// Close shuts the mock server down
func (m *MockUpstream) Close() {
	m.server.Close()
}

func (m *MockUpstream) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.hits[r.URL.Path]++
	response, exists := m.responses[r.URL.Path]
	m.mu.Unlock()

	if !exists {
		http.NotFound(w, r)
		return
	}

	w.WriteHeader(response.status)
	w.Write([]byte(response.body))
}
