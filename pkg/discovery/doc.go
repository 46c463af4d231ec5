// Package discovery finds the packages that directly depend on a target.
//
// # Cascade
//
// An [Aggregator] runs an ordered list of [Strategy] values. Each strategy is
// asked for at most the remaining budget of new names: names an earlier stage
// already reported are skipped and do not count. Once the budget is met the
// remaining strategies are skipped. The standard order is:
//
//  1. [SearchStrategy]: the registry search index, one query per manifest
//     section ("dependencies", plus "devDependencies"/"peerDependencies" when
//     enabled), paged by offset.
//  2. [LibrariesIOStrategy]: the libraries.io dependents API, when an API key
//     is configured.
//  3. [ScrapeStrategy]: the registry website's "depended on" listing, unless
//     disabled. Least reliable and most rate-sensitive, so it is paced the
//     slowest.
//
// # Provenance
//
// The first strategy to report a name owns it: later strategies never
// re-tag a name. Names are case-sensitive exact strings.
//
// # Failures
//
// A strategy that fails keeps the names it found before failing, the failure
// is logged, and the cascade moves on. Only context cancellation stops the
// cascade. Discovery is one hop: dependents of dependents are never fetched.
package discovery
