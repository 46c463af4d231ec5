package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/blastradius/pkg/discovery"
	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/httputil"
	"github.com/matzehuels/blastradius/pkg/integrations"
	"github.com/matzehuels/blastradius/pkg/integrations/npm"
	"github.com/matzehuels/blastradius/pkg/report"
)

// fakeNPM serves registry documents, search results and browse pages.
type fakeNPM struct {
	docs        map[string]string
	search      map[string][]string // query → names
	browse      map[string]string   // name → html at offset 0
}

func (f *fakeNPM) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/registry/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		doc, ok := f.docs[name]
		switch {
		case !ok:
			http.NotFound(w, req)
		case doc == "":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(doc))
		}
	})
	r.Get("/search", func(w http.ResponseWriter, req *http.Request) {
		names := f.search[req.URL.Query().Get("q")]
		if req.URL.Query().Get("from") != "0" {
			names = nil
		}
		objs := make([]map[string]any, len(names))
		for i, n := range names {
			objs[i] = map[string]any{"package": map[string]any{"name": n}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total": len(names), "objects": objs})
	})
	r.Get("/browse/depended/{name}", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("offset") != "0" {
			return
		}
		_, _ = w.Write([]byte(f.browse[chi.URLParam(req, "name")]))
	})
	return r
}

func doc(name, latest string, times map[string]string, manifests map[string]map[string]map[string]string) string {
	versions := map[string]any{}
	for v, sections := range manifests {
		m := map[string]any{"version": v}
		for k, deps := range sections {
			m[k] = deps
		}
		versions[v] = m
	}
	data, _ := json.Marshal(map[string]any{
		"name":      name,
		"dist-tags": map[string]string{"latest": latest},
		"versions":  versions,
		"time":      times,
	})
	return string(data)
}

func scenario() *fakeNPM {
	return &fakeNPM{
		docs: map[string]string{
			"pkg-a": doc("pkg-a", "1.1.0", map[string]string{
				"created":  "2020-01-01T00:00:00.000Z",
				"modified": "2020-06-01T00:00:00.000Z",
				"1.0.0":    "2020-01-01T00:00:00.000Z",
				"1.1.0":    "2020-06-01T00:00:00.000Z",
			}, map[string]map[string]map[string]string{"1.0.0": {}, "1.1.0": {}}),
			"pkg-b": doc("pkg-b", "3.0.0", map[string]string{
				"modified": "2020-03-02T00:00:00.000Z",
				"3.0.0":    "2020-03-01T00:00:00.000Z",
			}, map[string]map[string]map[string]string{
				"3.0.0": {"dependencies": {"pkg-a": "^1.0.0"}},
			}),
			"pkg-c": doc("pkg-c", "0.2.0", map[string]string{
				"0.2.0": "2021-01-01T00:00:00.000Z",
			}, map[string]map[string]map[string]string{
				"0.2.0": {"devDependencies": {"pkg-a": "1.0.0"}},
			}),
			"pkg-broken": "",
		},
		search: map[string][]string{
			"dependencies:pkg-a": {"pkg-b", "pkg-broken"},
		},
		browse: map[string]string{
			"pkg-a": `<a href="/package/pkg-b">pkg-b</a><a href="/package/pkg-c">pkg-c</a>`,
		},
	}
}

func newTestRunner(t *testing.T, f *fakeNPM, sink report.Sink) *Runner {
	t.Helper()
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)

	logger := log.New(io.Discard)
	fetcher := httputil.NewClient(httputil.Options{
		Retries: 1,
		Sleep:   func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
		Logger:  logger,
	})
	client := npm.NewClient(integrations.NewClient(fetcher, nil, "npm", 0, logger), npm.Endpoints{
		Registry: srv.URL + "/registry",
		Search:   srv.URL + "/search",
		Website:  srv.URL,
	})
	agg := discovery.NewAggregator(logger,
		&discovery.SearchStrategy{Client: client, Logger: logger},
		&discovery.ScrapeStrategy{Client: client, OffsetStep: 36, Logger: logger},
	)
	return NewRunner(client, agg, sink, logger)
}

func byDependent(records []report.Record) map[string]report.Record {
	out := map[string]report.Record{}
	for _, r := range records {
		out[r.Dependent] = r
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	sink := report.NewCollector()
	runner := newTestRunner(t, scenario(), sink)

	res, err := runner.Run(context.Background(), []Source{{Name: "pkg-a", Version: "1.0.0"}}, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, 3, res.Sources[0].Dependents)
	assert.Equal(t, 2, res.Sources[0].BySource[discovery.SourcePrimary])
	assert.Equal(t, 1, res.Sources[0].BySource[discovery.SourceScraped])

	records := sink.Records()
	require.Len(t, records, 3, "one record per discovered dependent")
	got := byDependent(records)

	b := got["pkg-b"]
	assert.Equal(t, "dep", b.DependencyType)
	assert.Equal(t, "^1.0.0", b.DeclaredRange)
	assert.Equal(t, "3.0.0", b.MatchedVersion)
	assert.Equal(t, "3.0.0", b.DependentLatestVersion)
	assert.Equal(t, "2020-03-02T00:00:00.000Z", b.LastUpdated)
	assert.Equal(t, "2020-01-01T00:00:00.000Z", b.CompromisedPublishedAt)
	assert.Equal(t, "2020-03-01T00:00:00.000Z", b.DependentPublishedAt)
	assert.Equal(t, "1.0.0", b.ResolvedAtRelease)
	assert.Equal(t, "1.1.0", b.ResolvedNow)
	assert.True(t, b.LikelyImpactedAtRelease)
	assert.False(t, b.LikelyImpactedNow)
	assert.False(t, b.UsesExactPin)
	assert.True(t, b.RangeSatisfiesCompromised)
	assert.Equal(t, "primary", b.DiscoverySource)
	assert.Equal(t, runner.RunID, b.RunID)
	assert.Empty(t, b.Error)

	broken := got["pkg-broken"]
	assert.NotEmpty(t, broken.Error)
	assert.False(t, broken.LikelyImpactedAtRelease)
	assert.False(t, broken.LikelyImpactedNow)
	assert.Empty(t, broken.DependencyType)

	c := got["pkg-c"]
	assert.Equal(t, "scraped", c.DiscoverySource)
	assert.Empty(t, c.DependencyType, "dev dependencies are ignored unless enabled")
	assert.False(t, c.LikelyImpactedAtRelease)
	assert.Empty(t, c.Error)
}

func TestRunIncludeDev(t *testing.T) {
	sink := report.NewCollector()
	runner := newTestRunner(t, scenario(), sink)

	_, err := runner.Run(context.Background(), []Source{{Name: "pkg-a", Version: "1.0.0"}}, Options{IncludeDev: true})
	require.NoError(t, err)

	c := byDependent(sink.Records())["pkg-c"]
	assert.Equal(t, "dev", c.DependencyType)
	assert.True(t, c.IsDev)
	assert.True(t, c.UsesExactPin)
	assert.Equal(t, "1.0.0", c.ResolvedAtRelease)
	assert.Equal(t, "1.0.0", c.ResolvedNow)
	assert.True(t, c.LikelyImpactedAtRelease)
	assert.True(t, c.LikelyImpactedNow)
}

func TestRunMaxDependentsShortCircuits(t *testing.T) {
	f := scenario()
	sink := report.NewCollector()
	runner := newTestRunner(t, f, sink)

	res, err := runner.Run(context.Background(), []Source{{Name: "pkg-a", Version: "1.0.0"}}, Options{MaxDependents: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sources[0].Dependents)
	assert.Len(t, sink.Records(), 1)
	assert.Equal(t, "pkg-b", sink.Records()[0].Dependent)
}

func TestRunSkipsFailedSource(t *testing.T) {
	sink := report.NewCollector()
	runner := newTestRunner(t, scenario(), sink)

	res, err := runner.Run(context.Background(), []Source{
		{Name: "missing", Version: "1.0.0"},
		{Name: "pkg-a", Version: "1.0.0"},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "missing", res.Failed[0].Source.Name)
	assert.True(t, brerrors.Is(res.Failed[0].Err, brerrors.ErrCodeNotFound))
	assert.Len(t, res.Sources, 1)
}

func TestRunAllSourcesFailed(t *testing.T) {
	runner := newTestRunner(t, scenario(), report.NewCollector())
	_, err := runner.Run(context.Background(), []Source{{Name: "missing", Version: "1.0.0"}}, Options{})
	require.Error(t, err)
	assert.True(t, brerrors.Is(err, brerrors.ErrCodeNotFound))
}

func TestRunRejectsInvalidName(t *testing.T) {
	runner := newTestRunner(t, scenario(), report.NewCollector())
	_, err := runner.Run(context.Background(), []Source{{Name: "../etc/passwd", Version: "1.0.0"}}, Options{})
	require.Error(t, err)
	assert.True(t, brerrors.Is(err, brerrors.ErrCodeInvalidPackage))
}

type failingSink struct{ writes atomic.Int32 }

func (s *failingSink) Write(context.Context, report.Record) error {
	s.writes.Add(1)
	return brerrors.New(brerrors.ErrCodeOutput, "disk full")
}

func (s *failingSink) Close() error { return nil }

func TestRunSinkFailureAborts(t *testing.T) {
	f := scenario()
	sink := &failingSink{}
	runner := newTestRunner(t, f, sink)

	_, err := runner.Run(context.Background(), []Source{
		{Name: "pkg-a", Version: "1.0.0"},
		{Name: "pkg-a", Version: "1.1.0"},
	}, Options{Concurrency: 1})
	require.Error(t, err)
	assert.True(t, brerrors.Is(err, brerrors.ErrCodeOutput))
	assert.True(t, strings.Contains(err.Error(), "disk full"))
	assert.EqualValues(t, 1, sink.writes.Load(), "no further records after the sink fails")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := newTestRunner(t, scenario(), report.NewCollector())
	_, err := runner.Run(ctx, []Source{{Name: "pkg-a", Version: "1.0.0"}}, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOptionsValidate(t *testing.T) {
	o := Options{}
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.Equal(t, DefaultConcurrency, o.Concurrency)

	assert.Error(t, (&Options{Concurrency: -1}).ValidateAndSetDefaults())
	assert.Error(t, (&Options{MaxDependents: -1}).ValidateAndSetDefaults())
}
