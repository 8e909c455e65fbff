package container

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ── Lifecycle capability ──────────────────────────────────────────────────────

// Lifecycle is the optional capability a registered service implements to be
// managed by the container's orchestration. Conformance is detected on the
// resolved instance, never declared at registration time.
type Lifecycle interface {
	// Initialize is invoked at most once per singleton instance by
	// InitializeAll. It may block; implementations must honor ctx.
	Initialize(ctx context.Context) error

	// Cleanup releases resources held by the service. It must not block.
	Cleanup() error
}

// ── Orchestration ─────────────────────────────────────────────────────────────

// InitializeAll resolves every singleton whose Initialize has not yet run,
// instantiating it if needed, and fans out the Initialize calls concurrently.
// The call returns once every launched initialization has settled: a failing
// service never cancels its siblings, and the first failure is surfaced after
// the join. Successfully initialized keys are recorded so repeated calls are
// per-service no-ops. Transients never participate.
//
// The caller's ctx bounds the whole operation; WithInitTimeout adds a
// per-service budget on top of it.
func (c *Container) InitializeAll(ctx context.Context) error {
	c.mu.RLock()
	pending := make([]string, 0, len(c.order))
	for _, key := range c.order {
		if c.bindings[key].life != singleton {
			continue
		}
		if _, done := c.initialized[key]; done {
			continue
		}
		pending = append(pending, key)
	}
	timeout := c.initTimeout
	c.mu.RUnlock()

	var g errgroup.Group
	launched := 0
	for _, key := range pending {
		instance, err := c.Make(key)
		if err != nil {
			// unregistered between the scan and now
			continue
		}
		svc, ok := instance.(Lifecycle)
		if !ok {
			continue
		}
		launched++
		g.Go(func() error {
			initCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				initCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			if err := svc.Initialize(initCtx); err != nil {
				c.log.Error("service initialization failed",
					zap.String("key", key), zap.Error(err))
				return &InitError{Key: key, Err: err}
			}
			c.markInitialized(key)
			return nil
		})
	}
	if launched > 0 {
		c.log.Debug("initializing services", zap.Int("count", launched))
	}
	return g.Wait()
}

func (c *Container) markInitialized(key string) {
	c.mu.Lock()
	c.initialized[key] = struct{}{}
	c.mu.Unlock()
}

// CleanupAll invokes Cleanup on every instantiated singleton implementing
// Lifecycle, sequentially and in reverse registration order. A failing
// Cleanup is logged and aggregated, never aborting the rest of the teardown.
// The initialized-set is cleared so a later InitializeAll starts fresh.
func (c *Container) CleanupAll() error {
	c.mu.Lock()
	resolved := make([]*binding, 0, len(c.order))
	for i := len(c.order) - 1; i >= 0; i-- {
		b := c.bindings[c.order[i]]
		if b.life == singleton && b.resolved {
			resolved = append(resolved, b)
		}
	}
	c.initialized = make(map[string]struct{})
	c.mu.Unlock()

	var errs error
	for _, b := range resolved {
		svc, ok := b.instance.(Lifecycle)
		if !ok {
			continue
		}
		if err := svc.Cleanup(); err != nil {
			c.log.Error("service cleanup failed",
				zap.String("key", b.key), zap.Error(err))
			errs = multierr.Append(errs, &CleanupError{Key: b.key, Err: err})
		}
	}
	return errs
}

// Unregister removes the registration for key. If a cached instance exists
// and implements Lifecycle, its Cleanup runs exactly once before the key
// becomes unresolvable. Unregistering an unknown key is a no-op.
func (c *Container) Unregister(key string) error {
	c.mu.Lock()
	b, ok := c.bindings[key]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.bindings, key)
	delete(c.initialized, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	var instance any
	if b.resolved {
		instance = b.instance
	}
	c.mu.Unlock()

	if svc, ok := instance.(Lifecycle); ok {
		if err := svc.Cleanup(); err != nil {
			c.log.Error("service cleanup failed",
				zap.String("key", key), zap.Error(err))
			return &CleanupError{Key: key, Err: err}
		}
	}
	return nil
}

// Clear is CleanupAll followed by removal of every registration, leaving the
// container empty.
func (c *Container) Clear() error {
	err := c.CleanupAll()
	c.mu.Lock()
	c.bindings = make(map[string]*binding)
	c.order = nil
	c.initialized = make(map[string]struct{})
	c.mu.Unlock()
	return err
}
