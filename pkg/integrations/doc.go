// Package integrations provides HTTP clients for the upstream APIs blastradius
// reads from.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [npm]: registry metadata documents, the search index, and the
//     "depended on" browse pages of the registry website
//   - [librariesio]: the libraries.io dependents-by-package API
//
// # Shared Infrastructure
//
// The [Client] type bundles what every subpackage needs: the resilient
// fetch client from [httputil], an optional response cache from [cache], and
// a logger. Subpackages embed it:
//
//	base := integrations.NewClient(fetcher, cache.NewNullCache(), "npm", 0, logger)
//	npmClient := npm.NewClient(base, npm.Endpoints{...})
//
// Only responses that are stable for the length of a run (registry metadata)
// go through [Client.Cached]; paginated listings are always fetched live.
//
// [npm]: github.com/matzehuels/blastradius/pkg/integrations/npm
// [librariesio]: github.com/matzehuels/blastradius/pkg/integrations/librariesio
// [httputil]: github.com/matzehuels/blastradius/pkg/httputil
// [cache]: github.com/matzehuels/blastradius/pkg/cache
package integrations
