// Package httputil provides the resilient fetch client used for every
// upstream call blastradius makes.
//
// # Overview
//
// [Client] wraps net/http with the policy all registry, search, stats and
// scrape requests share:
//
//   - Each attempt is bounded by a hard timeout that also covers reading the body
//   - Transport failures and non-2xx responses consume one retry and are
//     followed by a linear backoff (attempt × unit)
//   - 429 Too Many Requests never consumes a retry: the client waits for the
//     server's Retry-After, or an exponential delay capped at a maximum, and
//     repeats the same attempt
//   - Every request carries a fixed User-Agent; a bearer token is attached only
//     to URLs under the configured authenticated base
//
// After the retry budget is exhausted [Client.Fetch] returns a [*FetchError]
// carrying the last status. [Client.FetchText] has the same semantics but
// returns an empty string instead, which the scrape path reads as "no more
// pages".
//
// # Usage
//
//	client := httputil.NewClient(httputil.Options{
//	    Retries:  3,
//	    Timeout:  30 * time.Second,
//	    AuthBase: "https://registry.npmjs.org",
//	    Token:    token,
//	})
//	var doc map[string]any
//	if err := client.FetchJSON(ctx, url, &doc); err != nil {
//	    if errors.Is(err, httputil.ErrNotFound) { ... }
//	}
package httputil
