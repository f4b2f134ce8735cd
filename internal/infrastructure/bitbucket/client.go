// Package bitbucket publishes coverage reports as Bitbucket Cloud pull request comments.
package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/coverpr/internal/application"
	"github.com/felixgeelhaar/coverpr/internal/domain"
)

const (
	// DefaultAPIURL is the default Bitbucket API endpoint
	DefaultAPIURL = "https://api.bitbucket.org/2.0"
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	commentsPerPage = 100
	maxCommentPages = 20
)

// Client implements the PRClient interface for Bitbucket Cloud.
// Owner is the workspace and repo the repository slug.
type Client struct {
	httpClient  *http.Client
	apiURL      string
	username    string
	appPassword string
}

var _ application.PRClient = (*Client)(nil)

// NewClient creates a new Bitbucket client.
// Credentials are read from BITBUCKET_USERNAME and BITBUCKET_APP_PASSWORD when not provided.
func NewClient(username, appPassword string) *Client {
	return NewClientWithHTTP(username, appPassword, &http.Client{Timeout: DefaultHTTPTimeout}, "")
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing).
func NewClientWithHTTP(username, appPassword string, httpClient *http.Client, apiURL string) *Client {
	if username == "" {
		username = os.Getenv("BITBUCKET_USERNAME")
	}
	if appPassword == "" {
		appPassword = os.Getenv("BITBUCKET_APP_PASSWORD")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		httpClient:  httpClient,
		apiURL:      strings.TrimRight(apiURL, "/"),
		username:    username,
		appPassword: appPassword,
	}
}

type content struct {
	Raw string `json:"raw"`
}

// comment represents a Bitbucket PR comment.
type comment struct {
	ID      int64   `json:"id"`
	Content content `json:"content"`
	Links   struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"links"`
}

// commentList is one page of comments; Next is empty on the last page.
type commentList struct {
	Values []comment `json:"values"`
	Next   string    `json:"next"`
}

type commentPayload struct {
	Content content `json:"content"`
}

func (c *Client) commentsURL(workspace, repoSlug string, prNumber int) string {
	return fmt.Sprintf("%s/repositories/%s/%s/pullrequests/%d/comments", c.apiURL, workspace, repoSlug, prNumber)
}

// FindCoverageComment finds an existing coverage comment on a PR by its marker.
// Returns 0 if no comment found.
func (c *Client) FindCoverageComment(ctx context.Context, workspace, repoSlug string, prNumber int) (int64, error) {
	pageURL := fmt.Sprintf("%s?pagelen=%d", c.commentsURL(workspace, repoSlug, prNumber), commentsPerPage)
	for page := 0; page < maxCommentPages && pageURL != ""; page++ {
		var list commentList
		if err := c.do(ctx, http.MethodGet, pageURL, nil, http.StatusOK, &list); err != nil {
			return 0, err
		}
		for _, cm := range list.Values {
			if strings.Contains(cm.Content.Raw, domain.ReportMarker) {
				return cm.ID, nil
			}
		}
		pageURL = list.Next
	}
	return 0, nil
}

// CreateComment creates a new comment on a PR.
// Returns the comment ID and URL.
func (c *Client) CreateComment(ctx context.Context, workspace, repoSlug string, prNumber int, body string) (int64, string, error) {
	var created comment
	payload := commentPayload{Content: content{Raw: body}}
	if err := c.do(ctx, http.MethodPost, c.commentsURL(workspace, repoSlug, prNumber), payload, http.StatusCreated, &created); err != nil {
		return 0, "", err
	}
	return created.ID, created.Links.HTML.Href, nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, workspace, repoSlug string, prNumber int, commentID int64, body string) error {
	commentURL := fmt.Sprintf("%s/%d", c.commentsURL(workspace, repoSlug, prNumber), commentID)
	return c.do(ctx, http.MethodPut, commentURL, commentPayload{Content: content{Raw: body}}, http.StatusOK, nil)
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
		return fmt.Errorf("bitbucket API error: %s - %s", resp.Status, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders sets common headers for Bitbucket API requests.
func (c *Client) setHeaders(req *http.Request) {
	if c.username != "" && c.appPassword != "" {
		req.SetBasicAuth(c.username, c.appPassword)
	}
}
