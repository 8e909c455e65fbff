package container

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a concrete value from the container. A factory may resolve
// other registered keys through c, but the container performs no automatic
// wiring between services.
type Factory func(c *Container) any

type lifetime int

const (
	transient lifetime = iota
	singleton
)

// binding is one registration record: the factory, its lifetime and — for
// singletons — the lazily created cached instance.
type binding struct {
	key     string
	factory Factory
	life    lifetime

	// once closes the check-then-create race on the singleton path, so a
	// factory can never run twice for one registration.
	once     sync.Once
	instance any
	resolved bool // instance is populated; guarded by Container.mu
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the service registry: an ordered mapping from string key to a
// registration record. Keys are the sole addressing mechanism — there is no
// type-based lookup, and no validation of what a factory returns.
//
//	c := container.New(container.WithLogger(log))
//	c.Singleton("matches", func(c *container.Container) any {
//	    return store.NewMatchStore()
//	})
//	matches, err := container.Resolve[*store.MatchStore](c, "matches")
type Container struct {
	mu sync.RWMutex

	// key → registration record
	bindings map[string]*binding

	// keys in registration order; re-registering a key keeps its position
	order []string

	// singleton keys whose Initialize has already run successfully
	initialized map[string]struct{}

	log         *zap.Logger
	strict      bool
	initTimeout time.Duration
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		bindings:    make(map[string]*binding),
		initialized: make(map[string]struct{}),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultOnce sync.Once
	defaultC    *Container
)

// Default returns the process-wide container, created lazily on first use.
// Prefer an explicit New() threaded through the composition root; Default
// exists for code paths that have no way to receive one.
func Default() *Container {
	defaultOnce.Do(func() {
		defaultC = New()
	})
	return defaultC
}

// ── Registration ──────────────────────────────────────────────────────────────

// Singleton registers a factory whose result is created on first Make and
// cached for the life of the registration.
//
//	c.Singleton("teams", func(c *container.Container) any {
//	    return store.NewTeamStore(container.MustResolve[*zap.Logger](c, "logger"))
//	})
func (c *Container) Singleton(key string, f Factory) error {
	return c.bind(key, f, singleton)
}

// Transient registers a factory invoked on every Make. Results are never
// cached and never participate in lifecycle orchestration.
func (c *Container) Transient(key string, f Factory) error {
	return c.bind(key, f, transient)
}

// Instance registers a pre-built value as an already-resolved singleton.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.claimLocked(key); err != nil {
		return err
	}
	c.bindings[key] = &binding{
		key:      key,
		factory:  func(*Container) any { return value },
		life:     singleton,
		instance: value,
		resolved: true,
	}
	return nil
}

func (c *Container) bind(key string, f Factory, life lifetime) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.claimLocked(key); err != nil {
		return err
	}
	c.bindings[key] = &binding{key: key, factory: f, life: life}
	return nil
}

// claimLocked applies the duplicate-key policy and keeps the order slice
// consistent. Must hold mu.
func (c *Container) claimLocked(key string) error {
	if _, exists := c.bindings[key]; !exists {
		c.order = append(c.order, key)
		return nil
	}
	if c.strict {
		return &DuplicateError{Key: key}
	}
	c.log.Warn("service key re-registered, last registration wins",
		zap.String("key", key))
	delete(c.initialized, key)
	return nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves the service registered under key. Singletons are created once
// and cached; transients are built fresh on every call. An unregistered key
// yields a *NotFoundError carrying the full key list at call time.
func (c *Container) Make(key string) (any, error) {
	c.mu.RLock()
	b, ok := c.bindings[key]
	if !ok {
		registered := c.keysLocked()
		c.mu.RUnlock()
		return nil, &NotFoundError{Key: key, Registered: registered}
	}
	c.mu.RUnlock()

	if b.life == transient {
		return b.factory(c), nil
	}

	b.once.Do(func() {
		instance := b.factory(c)
		c.mu.Lock()
		b.instance = instance
		b.resolved = true
		c.mu.Unlock()
	})
	return b.instance, nil
}

// MustMake is Make for composition roots: it panics instead of returning an
// error. A missing key at bootstrap is a programming error, not a condition
// to recover from.
func (c *Container) MustMake(key string) any {
	v, err := c.Make(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether a registration exists for key. No side effects.
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[key]
	return ok
}

// Keys returns every registered service key in registration order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keysLocked()
}

func (c *Container) keysLocked() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Make and type-asserts the result.
//
//	log, err := container.Resolve[*zap.Logger](c, "logger")
func Resolve[T any](c *Container, key string) (T, error) {
	var zero T
	v, err := c.Make(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeError{
			Key:      key,
			Expected: fmt.Sprintf("%T", zero),
			Got:      fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

// MustResolve is Resolve but panics on failure.
func MustResolve[T any](c *Container, key string) T {
	v, err := Resolve[T](c, key)
	if err != nil {
		panic(err)
	}
	return v
}
