// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on a specific backend to the core packages. The CLI registers
// hooks at startup; library code emits events through the accessors.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [Prometheus] is the bundled implementation.
//
// # Usage
//
// Register hooks at application startup:
//
//	prom := observability.NewPrometheus(prometheus.NewRegistry())
//	observability.SetHTTPHooks(prom)
//	observability.SetDiscoveryHooks(prom)
//	observability.SetAnalysisHooks(prom)
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, "GET", host, path)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the fetch client.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP attempt.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response, including non-2xx ones.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a transport failure (connection error, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnRateLimited records a 429 and the wait chosen before the next attempt.
	OnRateLimited(ctx context.Context, host, path string, wait time.Duration)
}

// =============================================================================
// Discovery Hooks
// =============================================================================

// DiscoveryHooks receives events from the dependent discovery cascade.
type DiscoveryHooks interface {
	// OnStageComplete records how many new names a stage contributed.
	OnStageComplete(ctx context.Context, source string, added int, duration time.Duration, err error)

	// OnStageSkipped records a stage that did not run (budget reached or disabled).
	OnStageSkipped(ctx context.Context, source string, reason string)
}

// =============================================================================
// Analysis Hooks
// =============================================================================

// AnalysisHooks receives events from the per-dependent analysis phase.
type AnalysisHooks interface {
	// OnDependentAnalyzed records one finished dependent.
	OnDependentAnalyzed(ctx context.Context, impactedAtRelease, impactedNow bool, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnRateLimited(context.Context, string, string, time.Duration)           {}

// NoopDiscoveryHooks is a no-op implementation of DiscoveryHooks.
type NoopDiscoveryHooks struct{}

func (NoopDiscoveryHooks) OnStageComplete(context.Context, string, int, time.Duration, error) {}
func (NoopDiscoveryHooks) OnStageSkipped(context.Context, string, string)                    {}

// NoopAnalysisHooks is a no-op implementation of AnalysisHooks.
type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnDependentAnalyzed(context.Context, bool, bool, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	discoveryHooks DiscoveryHooks = NoopDiscoveryHooks{}
	analysisHooks  AnalysisHooks  = NoopAnalysisHooks{}
	hooksMu        sync.RWMutex
)

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// SetDiscoveryHooks registers custom discovery hooks.
func SetDiscoveryHooks(h DiscoveryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		discoveryHooks = h
	}
}

// SetAnalysisHooks registers custom analysis hooks.
func SetAnalysisHooks(h AnalysisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analysisHooks = h
	}
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Discovery returns the registered discovery hooks.
func Discovery() DiscoveryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return discoveryHooks
}

// Analysis returns the registered analysis hooks.
func Analysis() AnalysisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analysisHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	httpHooks = NoopHTTPHooks{}
	discoveryHooks = NoopDiscoveryHooks{}
	analysisHooks = NoopAnalysisHooks{}
}
