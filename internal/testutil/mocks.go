package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/distantorigin/mode-manager/internal/github"
)

// MockGitHubServer provides a mock GitHub API server for testing.
// It serves JSON responses by path and raw asset downloads under /download/.
type MockGitHubServer struct {
	*httptest.Server

	mu        sync.Mutex
	Responses map[string]MockResponse
	Requests  []MockRequest
}

// MockResponse holds response data for a path
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// MockRequest records a request made to the mock server
type MockRequest struct {
	Method string
	Path   string
	Query  map[string][]string
}

// NewMockGitHubServer creates a new mock GitHub API server
func NewMockGitHubServer(t *testing.T) *MockGitHubServer {
	t.Helper()

	mock := &MockGitHubServer{
		Responses: make(map[string]MockResponse),
		Requests:  make([]MockRequest, 0),
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.Requests = append(mock.Requests, MockRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
		})
		response, ok := mock.Responses[r.URL.Path]
		mock.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"message": "Not Found",
			})
			return
		}

		for key, value := range response.Headers {
			w.Header().Set(key, value)
		}
		if response.Headers["Content-Type"] == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		if response.StatusCode != 0 {
			w.WriteHeader(response.StatusCode)
		}
		w.Write(response.Body)
	}))

	t.Cleanup(func() {
		mock.Server.Close()
	})

	return mock
}

// SetResponse sets the response for a given path
func (m *MockGitHubServer) SetResponse(path string, data interface{}) error {
	return m.SetJSONResponse(path, http.StatusOK, data)
}

// SetJSONResponse sets a JSON response with custom status code
func (m *MockGitHubServer) SetJSONResponse(path string, statusCode int, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.SetRawResponse(path, statusCode, jsonData, nil)
	return nil
}

// SetRawResponse sets a raw response
func (m *MockGitHubServer) SetRawResponse(path string, statusCode int, body []byte, headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[path] = MockResponse{
		StatusCode: statusCode,
		Body:       body,
		Headers:    headers,
	}
}

// SetError sets an error response
func (m *MockGitHubServer) SetError(path string, statusCode int, message string) error {
	return m.SetJSONResponse(path, statusCode, map[string]string{
		"message": message,
	})
}

// ReleasesPath returns the API path of a repository's release list
func ReleasesPath(owner, repo string) string {
	return fmt.Sprintf("/repos/%s/%s/releases", owner, repo)
}

// SetReleases serves releases for owner/repo
func (m *MockGitHubServer) SetReleases(owner, repo string, releases []github.Release) error {
	if releases == nil {
		releases = []github.Release{}
	}
	return m.SetResponse(ReleasesPath(owner, repo), releases)
}

// AddAsset serves content as a downloadable file and returns its URL
func (m *MockGitHubServer) AddAsset(name string, content []byte) string {
	path := "/download/" + name
	m.SetRawResponse(path, http.StatusOK, content, map[string]string{
		"Content-Type": "application/octet-stream",
	})
	return m.URL + path
}

// FailAsset makes the download of name fail with statusCode and returns its URL
func (m *MockGitHubServer) FailAsset(name string, statusCode int) string {
	path := "/download/" + name
	m.SetRawResponse(path, statusCode, []byte("failed"), map[string]string{
		"Content-Type": "text/plain",
	})
	return m.URL + path
}

// Release builds a release whose assets are served by the mock
func (m *MockGitHubServer) Release(tag string, assets map[string][]byte) github.Release {
	rel := github.Release{TagName: tag, Name: tag}
	for name, content := range assets {
		rel.Assets = append(rel.Assets, github.Asset{
			Name:               name,
			Size:               int64(len(content)),
			BrowserDownloadURL: m.AddAsset(tag+"/"+name, content),
		})
	}
	return rel
}

// Client returns a GitHub client pointed at the mock
func (m *MockGitHubServer) Client() *github.Client {
	c := github.NewClient(m.Server.Client())
	c.SetBaseURL(m.URL)
	return c
}

// GetRequestCount returns the number of requests made to a path
func (m *MockGitHubServer) GetRequestCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, req := range m.Requests {
		if req.Path == path {
			count++
		}
	}
	return count
}

// ClearRequests clears the recorded requests
func (m *MockGitHubServer) ClearRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = make([]MockRequest, 0)
}
