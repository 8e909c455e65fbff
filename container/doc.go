// Package container provides the service registry and lifecycle kernel that
// the rest of the application composes itself on: string-keyed factories with
// singleton or transient lifetimes, capability-based lifecycle detection, and
// bulk initialize/cleanup orchestration.
//
// # Lifetimes
//
//	// Transient — a fresh instance on every Make
//	c.Transient("booking.ref", func(c *container.Container) any { return newRef() })
//
//	// Singleton — created lazily on first Make, cached afterwards
//	c.Singleton("matches", func(c *container.Container) any {
//	    return store.NewMatchStore()
//	})
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
// # Resolving
//
//	raw, err := c.Make("matches")
//	matches, err := container.Resolve[*store.MatchStore](c, "matches")
//
// Resolving an unregistered key fails with *NotFoundError, whose Registered
// field lists every key known at call time. That failure is a programming
// error in the composition root, not a transient condition — never retry it.
//
// # Lifecycle
//
// A registered service opts into orchestration by implementing Lifecycle:
//
//	func (s *MatchStore) Initialize(ctx context.Context) error { ... }
//	func (s *MatchStore) Cleanup() error                       { ... }
//
// At startup, InitializeAll resolves every singleton, runs the Initialize
// calls concurrently and joins them; services already initialized are
// skipped, so the call is idempotent per key. At shutdown, CleanupAll (or
// Clear, which also empties the registry) runs Cleanup sequentially in
// reverse registration order.
//
// # Duplicate keys
//
// Re-registering a key logs a warning and replaces the previous record —
// last registration wins, which keeps test setup free to swap in fakes.
// Containers built with WithStrictKeys return *DuplicateError instead.
//
// # Providers
//
// ServiceProvider and ProviderRegistry give bootstrap code a two-phase
// (register, then boot) structure; see the app package for how the kernel
// drives them.
package container
