package timeline

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versionStrings(tl Timeline) []string {
	out := make([]string, len(tl))
	for i, e := range tl {
		out[i] = e.Version.String()
	}
	return out
}

func TestBuild(t *testing.T) {
	tl := Build(map[string]string{
		"created":      "2019-12-31T00:00:00.000Z",
		"modified":     "2021-01-01T00:00:00.000Z",
		"2.0.0":        "2020-03-01T00:00:00.000Z",
		"1.0.0":        "2020-01-01T00:00:00.000Z",
		"1.1.0":        "2020-02-01T00:00:00.000Z",
		"1.1.0-beta.1": "2020-01-15T00:00:00.000Z",
		"not-a-ver":    "2020-01-20T00:00:00.000Z",
		"3.0.0":        "not a date",
	})

	assert.Equal(t, []string{"1.0.0", "1.1.0-beta.1", "1.1.0", "2.0.0"}, versionStrings(tl))
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), tl[0].PublishedAt)
}

func TestBuildDuplicateNormalizationKeepsEarliest(t *testing.T) {
	tl := Build(map[string]string{
		"v1.0.0": "2020-02-01T00:00:00.000Z",
		"1.0.0":  "2020-01-01T00:00:00.000Z",
		"1.0":    "2020-03-01T00:00:00.000Z",
	})
	require.Len(t, tl, 1)
	assert.Equal(t, "1.0.0", tl[0].Version.String())
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), tl[0].PublishedAt)
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.Empty(t, Build(map[string]string{"created": "2020-01-01T00:00:00.000Z"}))
}

func TestBuildMonotonicAndUnique(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	for round := range 50 {
		raw := map[string]string{"created": base.Format(time.RFC3339)}
		for range rng.IntN(40) {
			key := fmt.Sprintf("%d.%d.%d", rng.IntN(3), rng.IntN(3), rng.IntN(3))
			if rng.IntN(4) == 0 {
				key = "v" + key
			}
			at := base.Add(time.Duration(rng.IntN(1000)) * time.Hour)
			raw[key] = at.Format(time.RFC3339Nano)
		}

		tl := Build(raw)
		seen := map[string]bool{}
		for i, e := range tl {
			if i > 0 {
				assert.False(t, e.PublishedAt.Before(tl[i-1].PublishedAt), "round %d: not ascending at %d", round, i)
			}
			assert.False(t, seen[e.Version.String()], "round %d: duplicate %s", round, e.Version)
			seen[e.Version.String()] = true
		}
	}
}

func TestAtOrBefore(t *testing.T) {
	tl := Build(map[string]string{
		"1.0.0": "2020-01-01T00:00:00.000Z",
		"1.1.0": "2020-02-01T00:00:00.000Z",
		"2.0.0": "2020-03-01T00:00:00.000Z",
	})
	feb := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"1.0.0", "1.1.0"}, versionStrings(tl.AtOrBefore(feb)))
	assert.Empty(t, tl.AtOrBefore(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Len(t, tl.AtOrBefore(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)), 3)
	assert.Len(t, tl.Versions(), 3)
}

func TestLookup(t *testing.T) {
	tl := Build(map[string]string{"1.0.0": "2020-01-01T00:00:00.000Z"})
	e, ok := tl.Lookup("v1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", e.Version.String())

	_, ok = tl.Lookup("2.0.0")
	assert.False(t, ok)
	_, ok = tl.Lookup("junk")
	assert.False(t, ok)
}
