// Package report defines the blast-radius output record and the sinks it is
// written to.
//
// One [Record] is emitted per (source package, dependent) pair, including a
// degraded record with Error set when analysis of that dependent failed.
// Every [Sink] serializes its writes, so records produced concurrently by the
// analysis pool never interleave in the output.
package report

import (
	"strconv"
)

// Record is one output row.
type Record struct {
	RunID                     string `json:"run_id,omitempty" bson:"run_id,omitempty"`
	SourcePackage             string `json:"source_package" bson:"source_package"`
	SourceVersion             string `json:"source_version" bson:"source_version"`
	Dependent                 string `json:"dependent" bson:"dependent"`
	DeclaredRange             string `json:"declared_range" bson:"declared_range"`
	DependentLatestVersion    string `json:"dependent_latest_version" bson:"dependent_latest_version"`
	LastUpdated               string `json:"last_updated" bson:"last_updated"`
	MatchedVersion            string `json:"matched_version" bson:"matched_version"`
	DependencyType            string `json:"dependency_type" bson:"dependency_type"`
	IsDev                     bool   `json:"is_dev" bson:"is_dev"`
	RangeSatisfiesCompromised bool   `json:"range_satisfies_compromised" bson:"range_satisfies_compromised"`
	DiscoverySource           string `json:"discovery_source" bson:"discovery_source"`
	CompromisedPublishedAt    string `json:"compromised_published_at" bson:"compromised_published_at"`
	DependentPublishedAt      string `json:"dependent_published_at" bson:"dependent_published_at"`
	ResolvedAtRelease         string `json:"resolved_at_release" bson:"resolved_at_release"`
	ResolvedNow               string `json:"resolved_now" bson:"resolved_now"`
	LikelyImpactedAtRelease   bool   `json:"likely_impacted_at_release" bson:"likely_impacted_at_release"`
	LikelyImpactedNow         bool   `json:"likely_impacted_now" bson:"likely_impacted_now"`
	UsesExactPin              bool   `json:"uses_exact_pin" bson:"uses_exact_pin"`
	Error                     string `json:"error,omitempty" bson:"error,omitempty"`
}

// Columns is the fixed CSV column order.
var Columns = []string{
	"source_package",
	"source_version",
	"dependent",
	"declared_range",
	"dependent_latest_version",
	"last_updated",
	"matched_version",
	"dependency_type",
	"is_dev",
	"range_satisfies_compromised",
	"discovery_source",
	"compromised_published_at",
	"dependent_published_at",
	"resolved_at_release",
	"resolved_now",
	"likely_impacted_at_release",
	"likely_impacted_now",
	"uses_exact_pin",
	"error",
}

// Row renders r in [Columns] order.
func (r Record) Row() []string {
	return []string{
		r.SourcePackage,
		r.SourceVersion,
		r.Dependent,
		r.DeclaredRange,
		r.DependentLatestVersion,
		r.LastUpdated,
		r.MatchedVersion,
		r.DependencyType,
		strconv.FormatBool(r.IsDev),
		strconv.FormatBool(r.RangeSatisfiesCompromised),
		r.DiscoverySource,
		r.CompromisedPublishedAt,
		r.DependentPublishedAt,
		r.ResolvedAtRelease,
		r.ResolvedNow,
		strconv.FormatBool(r.LikelyImpactedAtRelease),
		strconv.FormatBool(r.LikelyImpactedNow),
		strconv.FormatBool(r.UsesExactPin),
		r.Error,
	}
}
