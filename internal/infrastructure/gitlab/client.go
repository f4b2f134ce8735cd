// Package gitlab publishes coverage reports as merge request notes.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
)

const (
	// DefaultAPIURL is the default GitLab API endpoint
	DefaultAPIURL = "https://gitlab.com/api/v4"

	notesPerPage = 100
	maxNotePages = 20
)

// Client implements the PRClient interface for GitLab merge requests.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

var _ application.PRClient = (*Client)(nil)

// NewClient creates a new GitLab client.
// Token is read from GITLAB_TOKEN and the endpoint from CI_API_V4_URL when not provided.
func NewClient(token string) *Client {
	return NewClientWithHTTP(token, &http.Client{}, os.Getenv("CI_API_V4_URL"))
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing).
func NewClientWithHTTP(token string, httpClient *http.Client, apiURL string) *Client {
	if token == "" {
		token = os.Getenv("GITLAB_TOKEN")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
	}
}

// note represents a GitLab MR note (comment).
type note struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// projectPath returns the URL-encoded project path for API calls.
func projectPath(owner, repo string) string {
	return url.PathEscape(owner + "/" + repo)
}

func (c *Client) notesURL(owner, repo string, mrNumber int) string {
	return fmt.Sprintf("%s/projects/%s/merge_requests/%d/notes", c.apiURL, projectPath(owner, repo), mrNumber)
}

// FindCoverageComment finds an existing coverage note on a MR by its marker.
// Returns 0 if no note found.
func (c *Client) FindCoverageComment(ctx context.Context, owner, repo string, mrNumber int) (int64, error) {
	for page := 1; page <= maxNotePages; page++ {
		pageURL := fmt.Sprintf("%s?per_page=%d&page=%d", c.notesURL(owner, repo, mrNumber), notesPerPage, page)

		var notes []note
		if err := c.do(ctx, http.MethodGet, pageURL, nil, http.StatusOK, &notes); err != nil {
			return 0, err
		}
		for _, n := range notes {
			if strings.Contains(n.Body, domain.ReportMarker) {
				return n.ID, nil
			}
		}
		if len(notes) < notesPerPage {
			break
		}
	}
	return 0, nil
}

// CreateComment creates a new note on a MR.
// Returns the note ID and its web URL.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, mrNumber int, body string) (int64, string, error) {
	var n note
	if err := c.do(ctx, http.MethodPost, c.notesURL(owner, repo, mrNumber), map[string]string{"body": body}, http.StatusCreated, &n); err != nil {
		return 0, "", err
	}

	webURL := strings.TrimSuffix(c.apiURL, "/api/v4")
	return n.ID, fmt.Sprintf("%s/%s/%s/-/merge_requests/%d#note_%d", webURL, owner, repo, mrNumber, n.ID), nil
}

// UpdateComment replaces the body of an existing note.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, mrNumber int, noteID int64, body string) error {
	noteURL := fmt.Sprintf("%s/%d", c.notesURL(owner, repo, mrNumber), noteID)
	return c.do(ctx, http.MethodPut, noteURL, map[string]string{"body": body}, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, url string, payload any, wantStatus int, out any) error {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitLab API error: %s - %s", resp.Status, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders sets common headers for GitLab API requests.
func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("PRIVATE-TOKEN", c.token)
	}
}
