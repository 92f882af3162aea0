package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{Token: "test-pat", BaseURL: server.URL}, zerolog.Nop())
}

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		in    string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/alice/api", "alice", "api", true},
		{"https://github.com/alice/api.git", "alice", "api", true},
		{"http://github.com/alice/api/", "alice", "api", true},
		{"see https://github.com/alice/api for code", "alice", "api", true},
		{"https://gitlab.com/alice/api", "", "", false},
		{"https://github.com/alice", "", "", false},
	}
	for _, tc := range cases {
		owner, repo, ok := ParseRepoURL(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.owner, owner, tc.in)
		require.Equal(t, tc.repo, repo, tc.in)
	}
}

func TestRepoInfoClassifiesResponses(t *testing.T) {
	t.Run("public fork", func(t *testing.T) {
		var gotAuth string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.Equal(t, "/repos/alice/api", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"private":false,"fork":true,"parent":{"full_name":"upstream/api"}}`))
		})

		info := client.RepoInfo(context.Background(), "alice", "api")
		require.Equal(t, StatusPublic, info.Status)
		require.True(t, info.IsFork)
		require.Equal(t, "upstream/api", info.ForkParent)
		require.Equal(t, "token test-pat", gotAuth)
	})

	t.Run("private", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"private":true,"fork":false}`))
		})
		require.Equal(t, StatusPrivate, client.RepoInfo(context.Background(), "alice", "api").Status)
	})

	t.Run("missing or hidden", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		require.Equal(t, StatusNotFoundPrivate, client.RepoInfo(context.Background(), "alice", "gone").Status)
	})

	t.Run("rate limited", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		require.Equal(t, StatusRateLimit, client.RepoInfo(context.Background(), "alice", "api").Status)
	})

	t.Run("other status surfaces code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		require.Equal(t, "Error 502", client.RepoInfo(context.Background(), "alice", "api").Status)
	})
}

func TestReadmeDecodesBase64(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte("# My Project\n\nHello."))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/alice/api/readme", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":"` + content + `","encoding":"base64"}`))
	})

	readme, err := client.Readme(context.Background(), "alice", "api")
	require.NoError(t, err)
	require.Equal(t, "# My Project\n\nHello.", readme)
}

func TestReadmeMissingYieldsPlaceholder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	readme, err := client.Readme(context.Background(), "alice", "api")
	require.NoError(t, err)
	require.Equal(t, "(No README found)", readme)
}

func TestReadmeRateLimitIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Readme(context.Background(), "alice", "api")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
}

func TestContentsListsRootEntries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/alice/api/contents", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"main.go","type":"file","size":120},{"name":"docs","type":"dir"}]`))
	})

	entries, err := client.Contents(context.Background(), "alice", "api")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "main.go", entries[0].Name)
	require.Equal(t, "dir", entries[1].Type)
}
