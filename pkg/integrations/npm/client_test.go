package npm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/httputil"
	"github.com/matzehuels/blastradius/pkg/integrations"
)

const pkgBDoc = `{
  "name": "pkg-b",
  "dist-tags": {"latest": "2.0.0"},
  "versions": {
    "1.0.0": {"version": "1.0.0", "dependencies": ["legacy-array"]},
    "2.0.0": {"version": "2.0.0", "dependencies": {"pkg-a": "^1.0.0"}, "devDependencies": {"tap": "*"}},
    "broken": "not-an-object"
  },
  "time": {
    "created": "2020-01-01T00:00:00.000Z",
    "modified": "2021-06-01T00:00:00.000Z",
    "1.0.0": "2020-01-01T00:00:00.000Z",
    "2.0.0": "2021-05-01T12:30:00.000Z"
  }
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	fetcher := httputil.NewClient(httputil.Options{
		Retries: 1,
		Sleep:   func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
	base := integrations.NewClient(fetcher, nil, "npm", 0, nil)
	return NewClient(base, Endpoints{
		Registry: srv.URL + "/registry/",
		Search:   srv.URL + "/-/v1/search",
		Website:  srv.URL,
	})
}

func TestFetchMetadata(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/registry/pkg-b", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(pkgBDoc))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	meta, err := newTestClient(t, srv).FetchMetadata(context.Background(), "pkg-b", false)
	require.NoError(t, err)

	assert.Equal(t, "pkg-b", meta.Name)
	assert.Equal(t, "2.0.0", meta.Latest())
	assert.Equal(t, "2021-06-01T00:00:00.000Z", meta.Modified())
	require.Contains(t, meta.Versions, "2.0.0")
	assert.Equal(t, "^1.0.0", meta.Versions["2.0.0"].Dependencies["pkg-a"])
	assert.Empty(t, meta.Versions["1.0.0"].Dependencies)
	assert.NotContains(t, meta.Versions, "broken")

	at, ok := meta.PublishedAt("2.0.0")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 5, 1, 12, 30, 0, 0, time.UTC), at)
	_, ok = meta.PublishedAt("9.9.9")
	assert.False(t, ok)
}

func TestFetchMetadataScopedName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"name":"@scope/pkg","dist-tags":{"latest":"1.0.0"}}`))
	}))
	defer srv.Close()

	meta, err := newTestClient(t, srv).FetchMetadata(context.Background(), "@scope/pkg", false)
	require.NoError(t, err)
	assert.Equal(t, "/registry/@scope%2Fpkg", gotPath)
	assert.Equal(t, "1.0.0", meta.Latest())
}

func TestFetchMetadataNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestClient(t, srv).FetchMetadata(context.Background(), "missing", false)
	require.Error(t, err)
	assert.True(t, brerrors.Is(err, brerrors.ErrCodeNotFound))
}

func TestFetchMetadataMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"dist-tags": null, "versions": null}`))
	}))
	defer srv.Close()

	meta, err := newTestClient(t, srv).FetchMetadata(context.Background(), "bare", false)
	require.NoError(t, err)
	assert.Equal(t, "bare", meta.Name)
	assert.Equal(t, "", meta.Latest())
	assert.Equal(t, "", meta.Modified())
	assert.Empty(t, meta.Versions)
}

func TestSearch(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/-/v1/search", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		assert.Equal(t, "dependencies:pkg-a", q.Get("q"))
		assert.Equal(t, "250", q.Get("size"))
		resp := map[string]any{
			"total": 2,
			"objects": []any{
				map[string]any{"package": map[string]any{"name": "pkg-b"}},
				map[string]any{"package": map[string]any{}},
				map[string]any{"package": map[string]any{"name": "pkg-c"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	page, err := newTestClient(t, srv).Search(context.Background(), "dependencies", "pkg-a", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []string{"pkg-b", "pkg-c"}, page.Names)
}

func TestBrowseDepended(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/browse/depended/*", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/browse/depended/@scope/pkg", req.URL.Path)
		assert.Equal(t, "36", req.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`<a href="/package/x">x</a>`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	html := newTestClient(t, srv).BrowseDepended(context.Background(), "@scope/pkg", 36)
	assert.Contains(t, html, "/package/x")
}

func TestParseDependedPage(t *testing.T) {
	html := `
<a href="/package/pkg-a">pkg-a</a>
<a href="/package/pkg-b">pkg-b</a>
<a href="/package/%40scope%2Fpkg-c">@scope/pkg-c</a>
<a href="/package/pkg-b">pkg-b again</a>
<a href="/package/policies">Policies</a>
<a href="/package/signup">Sign Up</a>
<a href="/signup">Sign Up</a>
<a href="/package/pkg-d?activeTab=readme">pkg-d</a>`

	assert.Equal(t, []string{"pkg-b", "@scope/pkg-c", "pkg-d"}, ParseDependedPage(html, "pkg-a"))
	assert.Empty(t, ParseDependedPage("", "pkg-a"))
}
