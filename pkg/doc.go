// Package pkg provides the libraries behind the blastradius CLI.
//
// # Overview
//
// Blastradius estimates which npm packages were exposed to a compromised
// package version. For each dependent it answers two questions: would its
// declared range have resolved to the compromised version when the
// dependent was published, and would it resolve to it today?
//
// # Architecture
//
// The data flow for one compromised version:
//
//	Registry document ([integrations/npm])
//	         ↓
//	    [timeline] (publish-ordered versions)
//	         ↓
//	    [discovery] (search index → libraries.io → website scrape)
//	         ↓
//	    [pipeline] (bounded pool, one task per dependent)
//	         ↓   per dependent: [declaration] then [blast]
//	    [report] sinks (CSV, JSON Lines, MongoDB)
//	         ↓
//	    [render] graph (DOT/SVG)
//
// Supporting packages:
//
//   - [httputil]: retrying fetch client with 429 handling
//   - [integrations]: cached registry access shared by the API clients
//   - [cache]: file and Redis response caches
//   - [versions]: semver coercion and npm range normalization
//   - [config]: file and environment configuration
//   - [errors]: coded errors shared by the CLI and libraries
//   - [observability]: hook interfaces with a Prometheus implementation
//
// # Quick Start
//
//	fetcher := httputil.NewClient(httputil.Options{Retries: 3})
//	client := npm.NewClient(integrations.NewClient(fetcher, nil, "npm", 0, logger), npm.Endpoints{
//	    Registry: "https://registry.npmjs.org",
//	    Search:   "https://registry.npmjs.org/-/v1/search",
//	    Website:  "https://www.npmjs.com",
//	})
//	agg := discovery.NewAggregator(logger, &discovery.SearchStrategy{Client: client})
//	runner := pipeline.NewRunner(client, agg, report.NewCollector(), logger)
//	result, err := runner.Run(ctx, []pipeline.Source{{Name: "chalk", Version: "5.6.1"}}, pipeline.Options{})
package pkg
