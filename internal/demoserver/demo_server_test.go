package demoserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/postdesk/internal/demoserver"
)

func newTestServer(t *testing.T, seed int) *httptest.Server {
	t.Helper()
	ds, err := demoserver.NewDemoServer(context.Background(), demoserver.Config{SeedPosts: seed}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(ds)
	t.Cleanup(func() {
		ts.Close()
		_ = ds.Close()
	})
	return ts
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

// ─── Posts ─────────────────────────────────────────────────────────────

func TestGetPost(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 3)

	resp, body := do(t, http.MethodGet, ts.URL+"/posts/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "post 1", body["title"])
	assert.Equal(t, "body of post 1", body["body"])
	assert.EqualValues(t, 1, body["id"])
	assert.EqualValues(t, 1, body["userId"])
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGetPost_NotFound(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 3)

	for _, path := range []string{"/posts/99", "/posts/abc", "/posts/0"} {
		resp, _ := do(t, http.MethodGet, ts.URL+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestListPosts(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 12)

	resp, err := http.Get(ts.URL + "/posts")
	require.NoError(t, err)
	defer resp.Body.Close()

	var posts []demoserver.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 12)
	assert.EqualValues(t, 2, posts[11].UserID)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 100)

	resp, body := do(t, http.MethodPost, ts.URL+"/posts", `{"title":"hello","body":"world"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 101, body["id"])
	assert.Equal(t, "hello", body["title"])
	assert.Equal(t, "world", body["body"])

	resp, body = do(t, http.MethodGet, ts.URL+"/posts/101", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", body["title"])
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 5)

	resp, body := do(t, http.MethodPut, ts.URL+"/posts/5", `{"title":"new","body":"text"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, body["id"])
	assert.Equal(t, "new", body["title"])
	assert.EqualValues(t, 1, body["userId"], "user is kept when not supplied")

	resp, _ = do(t, http.MethodPut, ts.URL+"/posts/6", `{"title":"new","body":"text"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidJSON(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 1)

	resp, body := do(t, http.MethodPost, ts.URL+"/posts", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid JSON", body["error"])

	resp, _ = do(t, http.MethodPut, ts.URL+"/posts/1", `nope`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ─── Status and CORS ───────────────────────────────────────────────────

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 0)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut} {
		resp, body := do(t, method, ts.URL+"/status/503", "")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, method)
		assert.Equal(t, "Service Unavailable", body["statusText"])
	}

	resp, _ := do(t, http.MethodGet, ts.URL+"/status/42", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreflight(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, 0)

	for path, methods := range map[string]string{
		"/posts":      "GET, POST",
		"/posts/1":    "GET, PUT",
		"/status/404": "GET, POST, PUT",
	} {
		resp, _ := do(t, http.MethodOptions, ts.URL+path, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode, path)
		assert.Equal(t, methods, resp.Header.Get("Access-Control-Allow-Methods"), path)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), path)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Content-Type")
	}
}

// ─── Store ─────────────────────────────────────────────────────────────

func TestStore_SeedOnlyWhenEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posts.db")

	store, err := demoserver.OpenStore(ctx, path)
	require.NoError(t, err)
	n, err := store.Seed(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, store.Close())

	store, err = demoserver.OpenStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	n, err = store.Seed(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, n)

	posts, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 4)
}

func TestStore_InMemoryIsPrivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := demoserver.OpenStore(ctx, "")
	require.NoError(t, err)
	defer a.Close()
	b, err := demoserver.OpenStore(ctx, "")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Create(ctx, demoserver.Post{Title: "t", Body: "b"})
	require.NoError(t, err)

	posts, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	store, err := demoserver.OpenStore(context.Background(), "")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(context.Background(), 1)
	assert.ErrorIs(t, err, demoserver.ErrPostNotFound)
	_, err = store.Update(context.Background(), demoserver.Post{ID: 1, Title: "t", Body: "b"})
	assert.ErrorIs(t, err, demoserver.ErrPostNotFound)
}
