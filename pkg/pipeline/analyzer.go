package pipeline

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/blastradius/pkg/blast"
	"github.com/matzehuels/blastradius/pkg/declaration"
	"github.com/matzehuels/blastradius/pkg/discovery"
	brerrors "github.com/matzehuels/blastradius/pkg/errors"
	"github.com/matzehuels/blastradius/pkg/observability"
	"github.com/matzehuels/blastradius/pkg/report"
	"github.com/matzehuels/blastradius/pkg/timeline"
)

// target is the per-source context shared read-only by every dependent task.
type target struct {
	Source
	runID       string
	timeline    timeline.Timeline
	publishedAt string // compromised version's publish timestamp, raw
	provenance  map[string]discovery.Source
	includeDev  bool
	includePeer bool
	refresh     bool
}

// analyzer produces the record for one dependent.
type analyzer struct {
	metadata MetadataFetcher
	logger   *log.Logger
}

// analyze never fails: errors become the record's Error field.
func (a *analyzer) analyze(ctx context.Context, t *target, dependent string) report.Record {
	start := time.Now()
	rec := report.Record{
		RunID:                  t.runID,
		SourcePackage:          t.Name,
		SourceVersion:          t.Version,
		Dependent:              dependent,
		DiscoverySource:        string(t.provenance[dependent]),
		CompromisedPublishedAt: t.publishedAt,
	}

	meta, err := a.metadata.FetchMetadata(ctx, dependent, t.refresh)
	if err != nil {
		rec.Error = brerrors.UserMessage(err)
		a.logger.Debug("dependent metadata failed", "dependent", dependent, "err", err)
		observability.Analysis().OnDependentAnalyzed(ctx, false, false, time.Since(start), err)
		return rec
	}

	decl := declaration.Locate(meta, t.Name, declaration.Options{
		IncludeDev:  t.includeDev,
		IncludePeer: t.includePeer,
	})
	rec.DependentLatestVersion = decl.LatestVersion
	rec.LastUpdated = meta.Modified()

	if !decl.Found() {
		rec.DependentPublishedAt = meta.Time[decl.LatestVersion]
		observability.Analysis().OnDependentAnalyzed(ctx, false, false, time.Since(start), nil)
		return rec
	}

	rec.DeclaredRange = decl.Range
	rec.MatchedVersion = decl.DeclaredInVersion
	rec.DependencyType = string(decl.Kind)
	rec.IsDev = decl.Kind == declaration.KindDev
	rec.DependentPublishedAt = meta.Time[decl.DeclaredInVersion]

	releasedAt, _ := meta.PublishedAt(decl.DeclaredInVersion)
	res := blast.Assess(t.timeline, decl.Range, t.Version, releasedAt)
	rec.RangeSatisfiesCompromised = res.RangeSatisfies
	rec.ResolvedAtRelease = versionString(res.ResolvedAtRelease)
	rec.ResolvedNow = versionString(res.ResolvedNow)
	rec.LikelyImpactedAtRelease = res.ImpactedAtRelease
	rec.LikelyImpactedNow = res.ImpactedNow
	rec.UsesExactPin = res.ExactPin

	observability.Analysis().OnDependentAnalyzed(ctx, res.ImpactedAtRelease, res.ImpactedNow, time.Since(start), nil)
	return rec
}

func versionString(v *semver.Version) string {
	if v == nil {
		return ""
	}
	return v.String()
}
