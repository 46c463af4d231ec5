package report

import "sort"

// Summary aggregates the records of one source package.
type Summary struct {
	SourcePackage     string
	SourceVersion     string
	Dependents        int
	Declared          int
	ImpactedAtRelease int
	ImpactedNow       int
	ExactPins         int
	Errors            int
	BySource          map[string]int
}

// Summarize groups records by source package and version, in first-seen order.
func Summarize(records []Record) []Summary {
	index := map[[2]string]int{}
	var out []Summary
	for _, r := range records {
		k := [2]string{r.SourcePackage, r.SourceVersion}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Summary{SourcePackage: r.SourcePackage, SourceVersion: r.SourceVersion, BySource: map[string]int{}})
		}
		s := &out[i]
		s.Dependents++
		if r.DependencyType != "" {
			s.Declared++
		}
		if r.LikelyImpactedAtRelease {
			s.ImpactedAtRelease++
		}
		if r.LikelyImpactedNow {
			s.ImpactedNow++
		}
		if r.UsesExactPin {
			s.ExactPins++
		}
		if r.Error != "" {
			s.Errors++
		}
		if r.DiscoverySource != "" {
			s.BySource[r.DiscoverySource]++
		}
	}
	return out
}

// SourceKeys returns the discovery source tags of s in sorted order.
func (s Summary) SourceKeys() []string {
	keys := make([]string, 0, len(s.BySource))
	for k := range s.BySource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
