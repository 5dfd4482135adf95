package testutil

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// CallRecord records a single HTTP request with metadata.
type CallRecord struct {
	Method        string
	URL           string
	Authorization string
	Timestamp     time.Time
	Status        int
	Error         error
}

// MockDoerBuilder provides a fluent API for configuring canned HTTP responses.
type MockDoerBuilder struct {
	responses map[string]mockResponse
	calls     []CallRecord
	mu        sync.Mutex
	t         *testing.T
}

type mockResponse struct {
	status      int
	body        string
	responseErr error
}

// NewMockDoerBuilder creates a new MockDoerBuilder. Requests for URLs without
// a configured response get a 404.
func NewMockDoerBuilder(t *testing.T) *MockDoerBuilder {
	t.Helper()

	return &MockDoerBuilder{
		responses: make(map[string]mockResponse),
		calls:     make([]CallRecord, 0),
		t:         t,
	}
}

// WithResponse serves body with status 200 for url.
func (b *MockDoerBuilder) WithResponse(url, body string) *MockDoerBuilder {
	return b.WithStatus(url, http.StatusOK, body)
}

// WithStatus serves body with the given status for url.
func (b *MockDoerBuilder) WithStatus(url string, status int, body string) *MockDoerBuilder {
	b.responses[url] = mockResponse{status: status, body: body}
	return b
}

// WithError fails requests for url with err, like a transport error.
func (b *MockDoerBuilder) WithError(url string, err error) *MockDoerBuilder {
	b.responses[url] = mockResponse{responseErr: err}
	return b
}

// Build returns the configured MockDoer.
func (b *MockDoerBuilder) Build() *MockDoer {
	return &MockDoer{builder: b}
}

// MockDoer serves canned responses; it satisfies include.Doer.
type MockDoer struct {
	builder *MockDoerBuilder
}

// Do records the request and returns the response configured for its URL.
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.builder.mu.Lock()
	defer m.builder.mu.Unlock()

	url := req.URL.String()
	record := CallRecord{
		Method:        req.Method,
		URL:           url,
		Authorization: req.Header.Get("Authorization"),
		Timestamp:     time.Now(),
	}

	if err := req.Context().Err(); err != nil {
		record.Error = err
		m.builder.calls = append(m.builder.calls, record)
		return nil, err
	}

	resp, ok := m.builder.responses[url]
	if !ok {
		resp = mockResponse{status: http.StatusNotFound, body: "not found"}
	}
	if resp.responseErr != nil {
		record.Error = resp.responseErr
		m.builder.calls = append(m.builder.calls, record)
		return nil, resp.responseErr
	}

	record.Status = resp.status
	m.builder.calls = append(m.builder.calls, record)
	return &http.Response{
		Status:     fmt.Sprintf("%d %s", resp.status, http.StatusText(resp.status)),
		StatusCode: resp.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Request:    req,
	}, nil
}

// GetCalls returns all recorded calls.
func (m *MockDoer) GetCalls() []CallRecord {
	m.builder.mu.Lock()
	defer m.builder.mu.Unlock()

	result := make([]CallRecord, len(m.builder.calls))
	copy(result, m.builder.calls)
	return result
}

// GetCallCount returns the number of requests made.
func (m *MockDoer) GetCallCount() int {
	m.builder.mu.Lock()
	defer m.builder.mu.Unlock()
	return len(m.builder.calls)
}

// AssertCalled verifies that a request for url was made.
func (m *MockDoer) AssertCalled(t *testing.T, url string) {
	t.Helper()

	for _, call := range m.GetCalls() {
		if call.URL == url {
			return
		}
	}
	t.Errorf("expected a request for %s, but it was not found in %d calls", url, m.GetCallCount())
}

// AssertCallCount verifies the number of requests made for url.
func (m *MockDoer) AssertCallCount(t *testing.T, url string, expected int) {
	t.Helper()

	count := 0
	for _, call := range m.GetCalls() {
		if call.URL == url {
			count++
		}
	}
	if count != expected {
		t.Errorf("expected %d requests for %s, got %d", expected, url, count)
	}
}

// Reset clears all recorded calls.
func (m *MockDoer) Reset() {
	m.builder.mu.Lock()
	defer m.builder.mu.Unlock()

	m.builder.calls = make([]CallRecord, 0)
}
