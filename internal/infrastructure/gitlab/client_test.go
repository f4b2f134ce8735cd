package gitlab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/coverpr/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTP("test-token", server.Client(), server.URL+"/api/v4")
}

func TestFindCoverageComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v4/projects/acme%2Fwidgets/merge_requests/3/notes", r.URL.EscapedPath())
		assert.Equal(t, "test-token", r.Header.Get("PRIVATE-TOKEN"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode([]note{
			{ID: 10, Body: "nice"},
			{ID: 11, Body: domain.ReportMarker + "\nold report"},
		})
	})

	id, err := client.FindCoverageComment(context.Background(), "acme", "widgets", 3)

	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestFindCoverageComment_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]note{{ID: 1, Body: "unrelated"}})
	})

	id, err := client.FindCoverageComment(context.Background(), "acme", "widgets", 3)

	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestFindCoverageComment_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := client.FindCoverageComment(context.Background(), "acme", "widgets", 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GitLab API error")
	assert.Contains(t, err.Error(), "forbidden")
}

func TestCreateComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "hello", payload["body"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(note{ID: 77})
	})

	id, url, err := client.CreateComment(context.Background(), "acme", "widgets", 3, "hello")

	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	assert.Contains(t, url, "/acme/widgets/-/merge_requests/3#note_77")
	assert.NotContains(t, url, "/api/v4")
}

func TestUpdateComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v4/projects/acme%2Fwidgets/merge_requests/3/notes/11", r.URL.EscapedPath())

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "updated", payload["body"])
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpdateComment(context.Background(), "acme", "widgets", 3, 11, "updated")

	assert.NoError(t, err)
}

func TestNewClientWithHTTP_TokenFromEnv(t *testing.T) {
	t.Setenv("GITLAB_TOKEN", "env-token")

	client := NewClientWithHTTP("", http.DefaultClient, "")

	assert.Equal(t, "env-token", client.token)
	assert.Equal(t, DefaultAPIURL, client.apiURL)
}
