package dive_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/dive"
	"github.com/driftlab/dive/internal/testutil"
)

func TestRegistry_Bind(t *testing.T) {
	t.Run("bind and resolve interface", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewFrozenClock))

		clock, err := dive.Get[testutil.Clock](reg)
		require.NoError(t, err)
		assert.IsType(t, &testutil.FrozenClock{}, clock)
	})

	t.Run("nil key", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := reg.Bind(nil, testutil.NewFrozenClock)

		require.Error(t, err)
		assert.ErrorIs(t, err, dive.ErrKeyNil)

		var regErr dive.RegistrationError
		assert.ErrorAs(t, err, &regErr)
	})

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := reg.Bind(dive.KeyOf[testutil.Clock](), nil)

		assert.ErrorIs(t, err, dive.ErrProviderNil)
	})

	t.Run("provider is not a function", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := reg.Bind(dive.KeyOf[testutil.Clock](), 42)

		var regErr dive.RegistrationError
		require.ErrorAs(t, err, &regErr)
		assert.Equal(t, dive.KeyOf[testutil.Clock](), regErr.Key)
	})

	t.Run("provider result not assignable to key", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := dive.BindTo[testutil.Clock](reg, testutil.NewMemoryKeyStore)

		var mismatch dive.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, dive.KeyOf[testutil.Clock](), mismatch.Expected)
	})

	t.Run("provider with parameters requires Injected", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := reg.Bind(dive.KeyOf[*testutil.Notifier](), testutil.NewNotifier)

		assert.ErrorIs(t, err, dive.ErrProviderParams)
	})

	t.Run("provider returning nothing", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := dive.BindTo[testutil.Clock](reg, func() {})

		assert.ErrorIs(t, err, dive.ErrProviderShape)
	})
}

func TestRegistry_SingletonSemantics(t *testing.T) {
	t.Run("repeated get returns identical instance", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, reg.Add(testutil.NewMemoryKeyStore))

		first, err := dive.Get[*testutil.MemoryKeyStore](reg)
		require.NoError(t, err)
		second, err := dive.Get[*testutil.MemoryKeyStore](reg)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("provider invoked exactly once", func(t *testing.T) {
		t.Parallel()

		provider, calls := testutil.CountingProvider()
		reg := dive.NewRegistry()
		require.NoError(t, reg.Add(provider))

		for i := 0; i < 5; i++ {
			_, err := dive.Get[*testutil.MemoryKeyStore](reg)
			require.NoError(t, err)
		}
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("concurrent first gets observe one instance", func(t *testing.T) {
		t.Parallel()

		provider, calls := testutil.CountingProvider()
		reg := dive.NewRegistry()
		require.NoError(t, reg.Add(provider))

		const n = 32
		instances := make([]*testutil.MemoryKeyStore, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				instance, err := dive.Get[*testutil.MemoryKeyStore](reg)
				assert.NoError(t, err)
				instances[i] = instance
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load())
		for _, instance := range instances {
			assert.Same(t, instances[0], instance)
		}
	})
}

func TestRegistry_Rebind(t *testing.T) {
	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewFrozenClock))
		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewSystemClock))

		clock, err := dive.Get[testutil.Clock](reg)
		require.NoError(t, err)
		assert.IsType(t, &testutil.SystemClock{}, clock)
	})

	t.Run("rebind discards memoized instance", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewFrozenClock))

		stale, err := dive.Get[testutil.Clock](reg)
		require.NoError(t, err)

		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewSystemClock))
		fresh, err := dive.Get[testutil.Clock](reg)
		require.NoError(t, err)

		assert.NotSame(t, stale, fresh)
		assert.IsType(t, &testutil.SystemClock{}, fresh)
	})

	t.Run("closures from one literal keep their own captures", func(t *testing.T) {
		t.Parallel()

		// Providers built from the same function literal share a
		// reflect.Type and a code pointer; the binding must still
		// invoke the exact closure it was given.
		provide := func(label string) func() string {
			return func() string { return label }
		}

		reg := dive.NewRegistry()
		require.NoError(t, reg.Bind(dive.KeyOf[string](), provide("first")))
		require.NoError(t, reg.Bind(dive.KeyOf[string](), provide("second")))

		got, err := dive.Get[string](reg)
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("same literal bound to different keys", func(t *testing.T) {
		t.Parallel()

		type nower interface{ Now() time.Time }

		provide := func(at time.Time) func() *testutil.FrozenClock {
			return func() *testutil.FrozenClock { return &testutil.FrozenClock{Instant: at} }
		}
		early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		late := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

		reg := dive.NewRegistry()
		require.NoError(t, reg.Bind(dive.KeyOf[testutil.Clock](), provide(early)))
		require.NoError(t, reg.Bind(dive.KeyOf[nower](), provide(late)))

		clock, err := dive.Get[testutil.Clock](reg)
		require.NoError(t, err)
		assert.Equal(t, early, clock.Now())

		n, err := dive.Get[nower](reg)
		require.NoError(t, err)
		assert.Equal(t, late, n.Now())
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("unbound key", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		_, err := dive.Get[testutil.Clock](reg)

		require.ErrorIs(t, err, dive.ErrNotBound)

		var resErr dive.ResolutionError
		require.ErrorAs(t, err, &resErr)
		assert.Equal(t, dive.KeyOf[testutil.Clock](), resErr.Key)
		assert.Equal(t, reg.ID(), resErr.RegistryID)
	})

	t.Run("nil key", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		_, err := reg.Get(nil)
		assert.ErrorIs(t, err, dive.ErrKeyNil)
	})

	t.Run("provider error propagates and is not memoized", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, reg.Add(testutil.FlakyProvider(1)))

		_, err := dive.Get[*testutil.MemoryKeyStore](reg)
		require.ErrorIs(t, err, testutil.ErrConstructor)

		store, err := dive.Get[*testutil.MemoryKeyStore](reg)
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("provider panic is reified", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, dive.BindTo[testutil.Clock](reg, func() testutil.Clock {
			return testutil.PanickyProvider()
		}))

		_, err := dive.Get[testutil.Clock](reg)
		require.Error(t, err)

		var panicErr dive.ConstructorPanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Contains(t, panicErr.Error(), "provider exploded")
	})

	t.Run("must get panics on unbound key", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		assert.Panics(t, func() {
			dive.MustGet[testutil.Clock](reg)
		})
	})
}

func TestRegistry_Add(t *testing.T) {
	t.Run("binds provider to its result type", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, reg.Add(testutil.NewFrozenClock))

		// NewFrozenClock returns the Clock interface, so that is the key.
		assert.True(t, reg.Contains(dive.KeyOf[testutil.Clock]()))
		assert.False(t, reg.Contains(dive.KeyOf[*testutil.FrozenClock]()))
	})

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		assert.ErrorIs(t, reg.Add(nil), dive.ErrProviderNil)
	})
}

func TestRegistry_BindAll(t *testing.T) {
	t.Run("applies bindings in order", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := reg.BindAll(
			dive.To[testutil.Clock](testutil.NewFrozenClock),
			dive.Self(testutil.NewMemoryKeyStore),
			dive.Many[testutil.Codec](testutil.NewJSONCodec, testutil.NewGobCodec),
		)
		require.NoError(t, err)
		assert.Equal(t, 3, reg.Count())
	})

	t.Run("stops at first failure, earlier bindings stay", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		err := reg.BindAll(
			dive.To[testutil.Clock](testutil.NewFrozenClock),
			dive.To[testutil.KeyStore](nil),
		)
		require.ErrorIs(t, err, dive.ErrProviderNil)
		assert.True(t, reg.Contains(dive.KeyOf[testutil.Clock]()))
		assert.False(t, reg.Contains(dive.KeyOf[testutil.KeyStore]()))
	})
}

func TestRegistry_Introspection(t *testing.T) {
	t.Run("bindings returns registered providers", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewFrozenClock))

		bindings := reg.Bindings()
		require.Len(t, bindings, 1)
		assert.NotNil(t, bindings[dive.KeyOf[testutil.Clock]()])
	})

	t.Run("bindings copy does not alias internal state", func(t *testing.T) {
		t.Parallel()

		reg := dive.NewRegistry()
		require.NoError(t, dive.BindTo[testutil.Clock](reg, testutil.NewFrozenClock))

		bindings := reg.Bindings()
		delete(bindings, dive.KeyOf[testutil.Clock]())
		assert.True(t, reg.Contains(dive.KeyOf[testutil.Clock]()))
	})

	t.Run("isolated registries do not share state", func(t *testing.T) {
		t.Parallel()

		a := dive.NewRegistry()
		b := dive.NewRegistry()
		require.NotEqual(t, a.ID(), b.ID())

		require.NoError(t, dive.BindTo[testutil.Clock](a, testutil.NewFrozenClock))
		assert.False(t, b.Contains(dive.KeyOf[testutil.Clock]()))

		_, err := dive.Get[testutil.Clock](b)
		assert.True(t, errors.Is(err, dive.ErrNotBound))
	})
}
