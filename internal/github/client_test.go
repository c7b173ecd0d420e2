package github

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the real API always sends a JSON content type; without it
		// resty does not unmarshal into SetResult targets
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	c := NewClient("jane", "key", "jane", "dokuwiki-plugin-example")
	c.SetAPIBase(server.URL)
	return c
}

func TestReadFile(t *testing.T) {
	t.Run("decodes the wrapped base64 content", func(t *testing.T) {
		// the API inserts newlines into the base64 payload
		encoded := base64.StdEncoding.EncodeToString([]byte("base example\ndate 2020-01-01\n"))
		wrapped := encoded[:10] + "\n" + encoded[10:] + "\n"

		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/jane/dokuwiki-plugin-example/contents/plugin.info.txt", r.URL.Path)
			assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "jane", user)
			assert.Equal(t, "key", pass)

			_ = json.NewEncoder(w).Encode(map[string]string{
				"content": wrapped,
				"sha":     "abc123",
			})
		})

		file, err := c.ReadFile("plugin.info.txt", "")
		require.NoError(t, err)
		assert.Equal(t, "base example\ndate 2020-01-01\n", string(file.Content))
		assert.Equal(t, "abc123", file.SHA)
	})

	t.Run("passes the revision", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "c1", r.URL.Query().Get("ref"))
			_ = json.NewEncoder(w).Encode(map[string]string{"content": "", "sha": "abc123"})
		})

		_, err := c.ReadFile("plugin.info.txt", "c1")
		require.NoError(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
		})

		_, err := c.ReadFile("plugin.info.txt", "")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})
}

func TestWriteFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		assert.Equal(t, "abc123", body["sha"])
		assert.Equal(t, "Version upped", body["message"])

		raw, err := base64.StdEncoding.DecodeString(body["content"])
		require.NoError(t, err)
		assert.Equal(t, "date 2020-06-15\n", string(raw))

		fmt.Fprint(w, "{}")
	})

	err := c.WriteFile("plugin.info.txt", "abc123", []byte("date 2020-06-15\n"), "Version upped")
	require.NoError(t, err)
}

func TestListCommits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "plugin.info.txt", r.URL.Query().Get("path"))

		fmt.Fprint(w, `[
			{"sha": "c1", "commit": {
				"message": "fix things",
				"author": {"date": "2020-06-15T08:00:00Z"},
				"committer": {"email": "jane@example.com"}
			}}
		]`)
	})

	commits, err := c.ListCommits("plugin.info.txt", 2)
	require.NoError(t, err)
	assert.Equal(t, []Commit{{
		SHA:            "c1",
		Message:        "fix things",
		AuthorDate:     "2020-06-15T08:00:00Z",
		CommitterEmail: "jane@example.com",
	}}, commits)
}

func TestListTags(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/jane/dokuwiki-plugin-example/git/refs/tags", r.URL.Path)

		fmt.Fprint(w, `[
			{"ref": "refs/tags/2020-01-01", "object": {"sha": "c1"}},
			{"ref": "refs/heads/oops", "object": {"sha": "c2"}}
		]`)
	})

	tags, err := c.ListTags(1)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Name: "2020-01-01", SHA: "c1"}}, tags)
}

func TestCreateTag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/jane/dokuwiki-plugin-example/git/refs", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refs/tags/2020-01-01", body["ref"])
		assert.Equal(t, "c1", body["sha"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "{}")
	})

	require.NoError(t, c.CreateTag("2020-01-01", "c1"))
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Bad credentials"}`, http.StatusUnauthorized)
	})

	err := c.CreateTag("2020-01-01", "c1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Bad credentials")
	assert.False(t, IsNotFound(err))
}
