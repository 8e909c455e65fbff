package container

// ── ServiceProvider ───────────────────────────────────────────────────────────

// ServiceProvider groups related registrations so the composition root stays
// declarative. Register binds services; Boot runs after every provider has
// registered, so it is safe to resolve other bindings there.
//
//	type MatchProvider struct{ container.BaseProvider }
//
//	func (MatchProvider) Register(app *container.Container) error {
//	    return app.Singleton("matches", func(c *container.Container) any {
//	        return store.NewMatchStore(container.MustResolve[*zap.Logger](c, "logger"))
//	    })
//	}
type ServiceProvider interface {
	// Register binds services into the container. Do not resolve other
	// bindings here — use Boot for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the keys this provider registers. Only consulted for
	// deferred providers; eager ones may return nil.
	Provides() []string

	// IsDeferred reports whether the provider should be loaded lazily, on
	// the first Make of one of its Provides keys.
	IsDeferred() bool
}

// BaseProvider is an embeddable struct with no-op implementations of Boot,
// Provides and IsDeferred. Embed it and override what you need.
type BaseProvider struct{}

func (BaseProvider) Boot(*Container) error { return nil }
func (BaseProvider) Provides() []string    { return nil }
func (BaseProvider) IsDeferred() bool      { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry drives the two-phase (register, then boot) startup of
// ServiceProviders, including deferred ones. It is meant to be used from a
// single goroutine during bootstrap.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and runs its Register phase, unless the provider
// is deferred. Registering the same provider twice is a no-op. A provider
// registered after Boot is booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		return r.deferProvider(provider)
	}

	if err := provider.Register(r.app); err != nil {
		return err
	}
	r.eager = append(r.eager, provider)

	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// deferProvider installs a placeholder binding for each provided key; the
// first Make of any of them swaps in the real registrations.
func (r *ProviderRegistry) deferProvider(provider ServiceProvider) error {
	for _, key := range provider.Provides() {
		if err := r.app.Transient(key, func(c *Container) any {
			// Drop every placeholder before the real Register so the
			// duplicate-key policy never fires.
			for _, k := range provider.Provides() {
				_ = c.Unregister(k)
			}
			if err := provider.Register(c); err != nil {
				panic(err)
			}
			if r.booted {
				if err := provider.Boot(c); err != nil {
					panic(err)
				}
			}
			return c.MustMake(key)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Boot runs the Boot phase on every eager provider. Call it once, after all
// providers have been registered; repeated calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return err
		}
	}
	return nil
}

// Booted reports whether Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }
