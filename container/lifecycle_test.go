package container_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/container"
)

// fakeService implements container.Lifecycle with call counters.
type fakeService struct {
	initCalls    atomic.Int32
	cleanupCalls atomic.Int32

	initErr    error
	cleanupErr error
	initDelay  time.Duration
	blockOnCtx bool
}

func (s *fakeService) Initialize(ctx context.Context) error {
	if s.blockOnCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.initDelay > 0 {
		select {
		case <-time.After(s.initDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.initCalls.Add(1)
	return s.initErr
}

func (s *fakeService) Cleanup() error {
	s.cleanupCalls.Add(1)
	return s.cleanupErr
}

// orderedService records the order its Cleanup ran in.
type orderedService struct {
	name string
	mu   *sync.Mutex
	log  *[]string
}

func (s *orderedService) Initialize(context.Context) error { return nil }

func (s *orderedService) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.log = append(*s.log, s.name)
	return nil
}

func registerFake(t *testing.T, c *container.Container, key string, svc *fakeService) {
	t.Helper()
	require.NoError(t, c.Singleton(key, func(*container.Container) any { return svc }))
}

// ── InitializeAll ─────────────────────────────────────────────────────────────

func TestInitializeAll_EachServiceInitializedExactlyOnce(t *testing.T) {
	c := container.New()
	matches := &fakeService{}
	chat := &fakeService{}
	registerFake(t, c, "matches", matches)
	registerFake(t, c, "chat", chat)

	require.NoError(t, c.InitializeAll(context.Background()))
	require.NoError(t, c.InitializeAll(context.Background()))

	assert.Equal(t, int32(1), matches.initCalls.Load())
	assert.Equal(t, int32(1), chat.initCalls.Load())
}

func TestInitializeAll_InstantiatesUnresolvedSingletons(t *testing.T) {
	c := container.New()
	factoryRuns := 0
	svc := &fakeService{}
	require.NoError(t, c.Singleton("matches", func(*container.Container) any {
		factoryRuns++
		return svc
	}))

	require.NoError(t, c.InitializeAll(context.Background()))

	assert.Equal(t, 1, factoryRuns)
	assert.Equal(t, int32(1), svc.initCalls.Load())
}

func TestInitializeAll_SkipsTransients(t *testing.T) {
	c := container.New()
	svc := &fakeService{}
	require.NoError(t, c.Transient("notifier", func(*container.Container) any { return svc }))

	require.NoError(t, c.InitializeAll(context.Background()))

	assert.Zero(t, svc.initCalls.Load())
}

func TestInitializeAll_IgnoresServicesWithoutCapability(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Singleton("plain", func(*container.Container) any {
		return &struct{ n int }{}
	}))

	require.NoError(t, c.InitializeAll(context.Background()))
}

func TestInitializeAll_SiblingsSettleBeforeFailureSurfaces(t *testing.T) {
	c := container.New()
	failing := &fakeService{initErr: errors.New("handshake refused")}
	slow := &fakeService{initDelay: 50 * time.Millisecond}
	registerFake(t, c, "failing", failing)
	registerFake(t, c, "slow", slow)

	err := c.InitializeAll(context.Background())

	var initErr *container.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "failing", initErr.Key)
	assert.Equal(t, int32(1), slow.initCalls.Load(), "slow sibling must have settled")
}

func TestInitializeAll_FailedServiceIsRetriedNextCall(t *testing.T) {
	c := container.New()
	svc := &fakeService{initErr: errors.New("db unavailable")}
	registerFake(t, c, "matches", svc)

	require.Error(t, c.InitializeAll(context.Background()))
	assert.Equal(t, int32(1), svc.initCalls.Load())

	svc.initErr = nil
	require.NoError(t, c.InitializeAll(context.Background()))
	assert.Equal(t, int32(2), svc.initCalls.Load(), "failed key must not enter the initialized-set")
}

func TestInitializeAll_PerServiceTimeout(t *testing.T) {
	c := container.New(container.WithInitTimeout(25 * time.Millisecond))
	stuck := &fakeService{blockOnCtx: true}
	registerFake(t, c, "stuck", stuck)

	start := time.Now()
	err := c.InitializeAll(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestInitializeAll_HonorsCallerContext(t *testing.T) {
	c := container.New()
	stuck := &fakeService{blockOnCtx: true}
	registerFake(t, c, "stuck", stuck)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	err := c.InitializeAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ── CleanupAll ────────────────────────────────────────────────────────────────

func TestCleanupAll_CleansEveryInstantiatedService(t *testing.T) {
	c := container.New()
	matches := &fakeService{}
	chat := &fakeService{}
	registerFake(t, c, "matches", matches)
	registerFake(t, c, "chat", chat)
	_ = c.MustMake("matches")
	_ = c.MustMake("chat")

	require.NoError(t, c.CleanupAll())

	assert.Equal(t, int32(1), matches.cleanupCalls.Load())
	assert.Equal(t, int32(1), chat.cleanupCalls.Load())
}

func TestCleanupAll_ReverseRegistrationOrder(t *testing.T) {
	c := container.New()
	var mu sync.Mutex
	var order []string
	for _, name := range []string{"config", "store", "chat"} {
		svc := &orderedService{name: name, mu: &mu, log: &order}
		require.NoError(t, c.Singleton(name, func(*container.Container) any { return svc }))
		_ = c.MustMake(name)
	}

	require.NoError(t, c.CleanupAll())

	assert.Equal(t, []string{"chat", "store", "config"}, order)
}

func TestCleanupAll_SkipsUninstantiatedSingletons(t *testing.T) {
	c := container.New()
	svc := &fakeService{}
	registerFake(t, c, "matches", svc)

	require.NoError(t, c.CleanupAll())

	assert.Zero(t, svc.cleanupCalls.Load(), "never-resolved singleton has nothing to clean")
}

func TestCleanupAll_NeverTouchesTransients(t *testing.T) {
	c := container.New()
	svc := &fakeService{}
	require.NoError(t, c.Transient("notifier", func(*container.Container) any { return svc }))
	_ = c.MustMake("notifier")
	_ = c.MustMake("notifier")

	require.NoError(t, c.CleanupAll())

	assert.Zero(t, svc.cleanupCalls.Load())
}

func TestCleanupAll_ErrorsAreAggregatedAndTeardownContinues(t *testing.T) {
	c := container.New()
	broken := &fakeService{cleanupErr: errors.New("socket already closed")}
	healthy := &fakeService{}
	registerFake(t, c, "broken", broken)
	registerFake(t, c, "healthy", healthy)
	_ = c.MustMake("broken")
	_ = c.MustMake("healthy")

	err := c.CleanupAll()

	var cleanupErr *container.CleanupError
	require.ErrorAs(t, err, &cleanupErr)
	assert.Equal(t, "broken", cleanupErr.Key)
	assert.Equal(t, int32(1), healthy.cleanupCalls.Load(), "teardown continues past a failure")
}

func TestCleanupAll_ResetsInitializedSet(t *testing.T) {
	c := container.New()
	svc := &fakeService{}
	registerFake(t, c, "matches", svc)

	require.NoError(t, c.InitializeAll(context.Background()))
	require.NoError(t, c.CleanupAll())
	require.NoError(t, c.InitializeAll(context.Background()))

	assert.Equal(t, int32(2), svc.initCalls.Load())
}

// ── Unregister & Clear ────────────────────────────────────────────────────────

func TestUnregister_CleansUpThenRemoves(t *testing.T) {
	c := container.New()
	svc := &fakeService{}
	registerFake(t, c, "matches", svc)
	_ = c.MustMake("matches")

	require.NoError(t, c.Unregister("matches"))

	assert.Equal(t, int32(1), svc.cleanupCalls.Load())
	assert.False(t, c.Has("matches"))
	_, err := c.Make("matches")
	assert.Error(t, err)
}

func TestUnregister_NeverResolvedSkipsCleanup(t *testing.T) {
	c := container.New()
	svc := &fakeService{}
	registerFake(t, c, "matches", svc)

	require.NoError(t, c.Unregister("matches"))

	assert.Zero(t, svc.cleanupCalls.Load())
	assert.False(t, c.Has("matches"))
}

func TestUnregister_UnknownKeyIsNoop(t *testing.T) {
	c := container.New()
	assert.NoError(t, c.Unregister("ghost"))
}

func TestUnregister_SurfacesCleanupError(t *testing.T) {
	c := container.New()
	svc := &fakeService{cleanupErr: errors.New("flush failed")}
	registerFake(t, c, "matches", svc)
	_ = c.MustMake("matches")

	err := c.Unregister("matches")

	var cleanupErr *container.CleanupError
	require.ErrorAs(t, err, &cleanupErr)
	assert.False(t, c.Has("matches"), "registration is removed even when cleanup fails")
}

func TestUnregister_AllowsReinitialization(t *testing.T) {
	c := container.New()
	first := &fakeService{}
	registerFake(t, c, "matches", first)
	require.NoError(t, c.InitializeAll(context.Background()))

	require.NoError(t, c.Unregister("matches"))

	second := &fakeService{}
	registerFake(t, c, "matches", second)
	require.NoError(t, c.InitializeAll(context.Background()))

	assert.Equal(t, int32(1), second.initCalls.Load())
}

func TestClear_EmptiesRegistryAndCleansEverything(t *testing.T) {
	c := container.New()
	matches := &fakeService{}
	chat := &fakeService{}
	registerFake(t, c, "matches", matches)
	registerFake(t, c, "chat", chat)
	require.NoError(t, c.Transient("notifier", func(*container.Container) any { return &fakeService{} }))
	_ = c.MustMake("matches")
	_ = c.MustMake("chat")

	require.NoError(t, c.Clear())

	assert.Empty(t, c.Keys())
	assert.Equal(t, int32(1), matches.cleanupCalls.Load())
	assert.Equal(t, int32(1), chat.cleanupCalls.Load())
	assert.False(t, c.Has("notifier"))
}
