package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint
	DefaultBaseURL = "https://api.github.com"

	perPage  = 100
	maxPages = 10
)

// ErrNoReleases is returned when a repository has no published releases
var ErrNoReleases = errors.New("no releases found in repository")

// Release represents a GitHub release
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset represents a downloadable file attached to a release
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// IssueComment represents a comment on a GitHub issue
type IssueComment struct {
	ID      int64  `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	User    struct {
		Login string `json:"login"`
	} `json:"user"`
}

// FindAsset picks the asset to install for fileName. An exact (case-insensitive)
// name match wins, otherwise the first asset ending in ext.
func (r Release) FindAsset(fileName, ext string) (Asset, bool) {
	if fileName != "" {
		for _, a := range r.Assets {
			if strings.EqualFold(a.Name, fileName) {
				return a, true
			}
		}
	}
	ext = strings.ToLower(ext)
	for _, a := range r.Assets {
		if strings.HasSuffix(strings.ToLower(a.Name), ext) {
			return a, true
		}
	}
	return Asset{}, false
}

// Client handles GitHub API requests
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	releases   *cache.Cache
}

// NewClient creates a new GitHub API client
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  "mode-manager",
		httpClient: httpClient,
	}
}

// SetHTTPClient sets the HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetHTTPClient returns the HTTP client (useful for testing)
func (c *Client) GetHTTPClient() *http.Client {
	return c.httpClient
}

// SetBaseURL points the client at another API root (GitHub Enterprise, test servers)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetToken sets the token sent as a bearer credential. Empty means anonymous.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetUserAgent sets the User-Agent header GitHub requires
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// EnableCache keeps release lists for ttl so repeated lookups in one pass hit the API once
func (c *Client) EnableCache(ttl time.Duration) {
	if ttl <= 0 {
		c.releases = nil
		return
	}
	c.releases = cache.New(ttl, 2*ttl)
}

// Invalidate drops the cached release list of a repository
func (c *Client) Invalidate(owner, repo string) {
	if c.releases != nil {
		c.releases.Delete(cacheKey(owner, repo))
	}
}

func cacheKey(owner, repo string) string {
	return strings.ToLower(owner + "/" + repo)
}

// ListReleases fetches all releases of a repository, newest first as GitHub returns them
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	key := cacheKey(owner, repo)
	if c.releases != nil {
		if v, ok := c.releases.Get(key); ok {
			return slices.Clone(v.([]Release)), nil
		}
	}

	var all []Release
	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d", c.baseURL, owner, repo, perPage, page)
		var releases []Release
		if err := c.getJSON(ctx, url, &releases); err != nil {
			return nil, fmt.Errorf("failed to fetch releases for %s/%s: %w", owner, repo, err)
		}
		all = append(all, releases...)
		if len(releases) < perPage {
			break
		}
	}

	if c.releases != nil {
		c.releases.SetDefault(key, slices.Clone(all))
	}
	return all, nil
}

// LatestRelease returns the first entry of the release list
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	releases, err := c.ListReleases(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, ErrNoReleases
	}
	return &releases[0], nil
}

// ListIssueComments fetches the comments of an issue
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]IssueComment, error) {
	var all []IssueComment
	for page := 1; page <= maxPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d", c.baseURL, owner, repo, number, perPage, page)
		var comments []IssueComment
		if err := c.getJSON(ctx, url, &comments); err != nil {
			return nil, fmt.Errorf("failed to fetch comments for %s/%s#%d: %w", owner, repo, number, err)
		}
		all = append(all, comments...)
		if len(comments) < perPage {
			break
		}
	}
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
