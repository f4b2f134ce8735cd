// Package github publishes coverage reports as pull request comments.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
)

const (
	// DefaultAPIURL is the default GitHub API endpoint
	DefaultAPIURL = "https://api.github.com"

	commentsPerPage = 100
	maxCommentPages = 20
)

// Client implements the PRClient interface for GitHub API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

var _ application.PRClient = (*Client)(nil)

// NewClient creates a new GitHub client.
// Token is read from GITHUB_TOKEN and the endpoint from GITHUB_API_URL when not provided.
func NewClient(token string) *Client {
	return NewClientWithHTTP(token, &http.Client{}, os.Getenv("GITHUB_API_URL"))
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing).
func NewClientWithHTTP(token string, httpClient *http.Client, apiURL string) *Client {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
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

// APIError is returned for non-success GitHub responses.
type APIError struct {
	Status string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error: %s - %s", e.Status, e.Body)
}

// issueComment represents a GitHub issue/PR comment.
type issueComment struct {
	ID      int64  `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// FindCoverageComment finds an existing coverage comment on a PR by its marker.
// Returns 0 if no comment found.
func (c *Client) FindCoverageComment(ctx context.Context, owner, repo string, prNumber int) (int64, error) {
	for page := 1; page <= maxCommentPages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d",
			c.apiURL, owner, repo, prNumber, commentsPerPage, page)

		var comments []issueComment
		if err := c.do(ctx, http.MethodGet, url, nil, http.StatusOK, &comments); err != nil {
			return 0, err
		}
		for _, comment := range comments {
			if strings.Contains(comment.Body, domain.ReportMarker) {
				return comment.ID, nil
			}
		}
		if len(comments) < commentsPerPage {
			break
		}
	}
	return 0, nil
}

// CreateComment creates a new comment on a PR.
// Returns the comment ID and URL.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, prNumber int, body string) (int64, string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, owner, repo, prNumber)

	var comment issueComment
	if err := c.do(ctx, http.MethodPost, url, map[string]string{"body": body}, http.StatusCreated, &comment); err != nil {
		return 0, "", err
	}
	return comment.ID, comment.HTMLURL, nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, prNumber int, commentID int64, body string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.apiURL, owner, repo, commentID)
	return c.do(ctx, http.MethodPatch, url, map[string]string{"body": body}, http.StatusOK, nil)
}

// do sends a JSON request and decodes the response into out when out is non-nil.
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
		return &APIError{Status: resp.Status, Body: string(respBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders sets common headers for GitHub API requests.
func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
