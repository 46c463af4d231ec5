// Package npm provides HTTP clients for the npm registry, its search index,
// and the "depended on" browse pages of the registry website.
//
// # Overview
//
// Three endpoints are used:
//
//   - Registry documents: GET {registry}/{name}, with the "/" of scoped names
//     percent-encoded. [Client.FetchMetadata] decodes the parts blastradius
//     needs (dist-tags, per-version dependency maps, the publish-time map).
//   - Search: GET {search}?q={kind}:{name}&from=N&size=M. [Client.Search]
//     returns one page of package names plus the reported total.
//   - Browse pages: GET {website}/browse/depended/{name}?offset=N, HTML.
//     [Client.BrowseDepended] returns the raw page and [ParseDependedPage]
//     extracts package names from its links.
//
// # Defensive Decoding
//
// Registry documents for old packages contain arrays or nulls where maps are
// expected. Such fields decode to empty values rather than failing the
// document; see [integrations.StringMap].
//
// # Caching
//
// Registry documents go through the shared client's cache when one is
// configured. Search and browse pages are never cached.
package npm
