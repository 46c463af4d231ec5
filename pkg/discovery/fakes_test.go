package discovery

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/matzehuels/blastradius/pkg/integrations/npm"
)

// fakeStrategy returns a fixed list, minus names already known, and counts
// calls.
type fakeStrategy struct {
	source  Source
	names   []string
	err     error
	calls   atomic.Int32
	budgets []int
}

func (f *fakeStrategy) Source() Source { return f.source }

func (f *fakeStrategy) Discover(_ context.Context, _ string, _ Options, budget int, known func(string) bool) ([]string, error) {
	f.calls.Add(1)
	f.budgets = append(f.budgets, budget)
	c := newCollector(budget, known)
	c.offer(f.names)
	return c.found, f.err
}

type switchableStrategy struct {
	*fakeStrategy
	on bool
}

func (s switchableStrategy) Enabled() bool { return s.on }

// fakeSearch serves "dependencies"/"devDependencies"/"peerDependencies"
// queries from in-memory lists.
type fakeSearch struct {
	byKind map[string][]string
	total  map[string]int // overrides len(byKind[kind]) when set
	fail   map[string]bool
	calls  []string
}

func (f *fakeSearch) Search(_ context.Context, kind, target string, from, size int) (*npm.SearchPage, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%s@%d", kind, target, from))
	if f.fail[kind] {
		return nil, fmt.Errorf("search %s: boom", kind)
	}
	all := f.byKind[kind]
	total := len(all)
	if t, ok := f.total[kind]; ok {
		total = t
	}
	if from >= len(all) {
		return &npm.SearchPage{Total: total}, nil
	}
	return &npm.SearchPage{Total: total, Names: all[from:min(from+size, len(all))]}, nil
}

type fakeDependents struct {
	pages   [][]string
	err     error
	errPage int
	calls   int
}

func (f *fakeDependents) Enabled() bool { return true }

func (f *fakeDependents) Dependents(_ context.Context, _ string, page, _ int) ([]string, error) {
	f.calls++
	if f.err != nil && page >= f.errPage {
		return nil, f.err
	}
	if page-1 >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

type fakeBrowse struct {
	pages   map[int]string
	offsets []int
}

func (f *fakeBrowse) BrowseDepended(_ context.Context, _ string, offset int) string {
	f.offsets = append(f.offsets, offset)
	return f.pages[offset]
}

func links(names ...string) string {
	var s string
	for _, n := range names {
		s += fmt.Sprintf(`<a href="/package/%s">%s</a>`, n, n)
	}
	return s
}
