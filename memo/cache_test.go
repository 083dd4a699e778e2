package memo

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/memocache"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// upper returns a function that upper-cases its key and counts invocations
// per key.
func upper() (func(string) (string, error), map[string]int) {
	calls := make(map[string]int)
	return func(k string) (string, error) {
		calls[k]++
		return strings.ToUpper(k), nil
	}, calls
}

func TestDisabled(t *testing.T) {
	require := require.New(t)

	fn, calls := upper()
	c, err := New(fn, WithMaxSize(0), WithTTL(time.Minute))
	require.NoError(err)

	for i := 0; i < 3; i++ {
		v, err := c.Call("a")
		require.NoError(err)
		require.Equal("A", v)
	}

	require.Equal(3, calls["a"])
	require.Equal(memocache.Stats{Size: 0, MaxSize: 0, Hits: 0, Misses: 3}, c.Stats())
}

func TestBoundedNeverExceedsMaxSize(t *testing.T) {
	require := require.New(t)

	fn, _ := upper()
	c, err := New(fn, WithMaxSize(3))
	require.NoError(err)

	for i := 0; i < 100; i++ {
		_, err := c.Call(fmt.Sprintf("k%d", i%7))
		require.NoError(err)
		require.LessOrEqual(c.Stats().Size, 3)
	}
	require.Equal(3, c.Stats().Size)
}

func TestEvictsOldestByCreation(t *testing.T) {
	require := require.New(t)

	clock := newFakeClock()
	fn, calls := upper()
	c, err := New(fn, WithMaxSize(2), WithClock(clock.Now))
	require.NoError(err)

	_, _ = c.Call("A")
	clock.Advance(time.Second)
	_, _ = c.Call("B")
	clock.Advance(time.Second)

	// Reading A does not make it any younger
	_, _ = c.Call("A")
	require.Equal(1, calls["A"])

	_, _ = c.Call("C")
	require.Equal(2, c.Stats().Size)

	// B and C are cached, A was evicted
	_, _ = c.Call("B")
	_, _ = c.Call("C")
	require.Equal(1, calls["B"])
	require.Equal(1, calls["C"])

	_, _ = c.Call("A")
	require.Equal(2, calls["A"])
	require.Equal(2, c.Stats().Size)
}

func TestTTL(t *testing.T) {
	require := require.New(t)

	clock := newFakeClock()
	fn, calls := upper()
	c, err := New(fn, WithMaxSize(10), WithTTL(time.Minute), WithClock(clock.Now))
	require.NoError(err)

	_, err = c.Call("a")
	require.NoError(err)

	clock.Advance(30 * time.Second)
	v, err := c.Call("a")
	require.NoError(err)
	require.Equal("A", v)
	require.Equal(1, calls["a"])
	require.Equal(uint64(1), c.Stats().Hits)

	clock.Advance(60 * time.Second)
	_, err = c.Call("a")
	require.NoError(err)
	require.Equal(2, calls["a"])
	require.Equal(uint64(2), c.Stats().Misses)

	// The recomputed entry is fresh again
	clock.Advance(30 * time.Second)
	_, err = c.Call("a")
	require.NoError(err)
	require.Equal(2, calls["a"])
	require.Equal(memocache.Stats{Size: 1, MaxSize: 10, Hits: 2, Misses: 2}, c.Stats())
}

func TestTTLBoundary(t *testing.T) {
	require := require.New(t)

	clock := newFakeClock()
	fn, calls := upper()
	c, err := New(fn, WithMaxSize(1), WithTTL(time.Minute), WithClock(clock.Now))
	require.NoError(err)

	_, _ = c.Call("a")
	clock.Advance(time.Minute)
	_, _ = c.Call("a")
	require.Equal(2, calls["a"])
}

func TestTTLUnbounded(t *testing.T) {
	require := require.New(t)

	clock := newFakeClock()
	fn, calls := upper()
	c, err := New(fn, WithTTL(time.Minute), WithClock(clock.Now))
	require.NoError(err)

	_, _ = c.Call("a")
	_, _ = c.Call("a")
	require.Equal(1, calls["a"])

	clock.Advance(2 * time.Minute)
	_, _ = c.Call("a")
	require.Equal(2, calls["a"])
	require.Equal(memocache.Stats{Size: 1, MaxSize: memocache.Unbounded, Hits: 1, Misses: 2}, c.Stats())
}

func TestBoundedWithoutTTLCountsHits(t *testing.T) {
	require := require.New(t)

	fn, calls := upper()
	c, err := New(fn, WithMaxSize(4))
	require.NoError(err)

	for i := 0; i < 5; i++ {
		_, err := c.Call("a")
		require.NoError(err)
	}
	require.Equal(1, calls["a"])
	require.Equal(memocache.Stats{Size: 1, MaxSize: 4, Hits: 4, Misses: 1}, c.Stats())
}

func TestClear(t *testing.T) {
	require := require.New(t)

	fn, calls := upper()
	c, err := New(fn, WithMaxSize(2))
	require.NoError(err)

	c.Clear()
	require.Equal(memocache.Stats{MaxSize: 2}, c.Stats())

	_, _ = c.Call("a")
	_, _ = c.Call("b")
	_, _ = c.Call("a")
	c.Clear()
	require.Equal(memocache.Stats{MaxSize: 2}, c.Stats())
	c.Clear()
	require.Equal(memocache.Stats{MaxSize: 2}, c.Stats())

	// The full flag was reset too: two new keys fit without eviction
	_, _ = c.Call("x")
	_, _ = c.Call("y")
	_, _ = c.Call("x")
	_, _ = c.Call("y")
	require.Equal(1, calls["x"])
	require.Equal(1, calls["y"])
	require.Equal(2, calls["a"]+calls["b"])
}

func TestReinsertAfterExpiry(t *testing.T) {
	require := require.New(t)

	clock := newFakeClock()
	fn, calls := upper()
	c, err := New(fn, WithMaxSize(1), WithTTL(time.Minute), WithClock(clock.Now))
	require.NoError(err)

	_, _ = c.Call("A")
	clock.Advance(2 * time.Minute)
	_, _ = c.Call("A")
	require.Equal(2, calls["A"])
	require.Equal(1, c.Stats().Size)

	_, _ = c.Call("A")
	require.Equal(2, calls["A"])
	require.Equal(uint64(1), c.Stats().Hits)
}

var errBoom = errors.New("boom")

func TestFailuresAreNotCached(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "unbounded"},
		{name: "bounded", opts: []Option{WithMaxSize(2)}},
		{name: "disabled", opts: []Option{WithMaxSize(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			calls := 0
			fn := func(k string) (int, error) {
				calls++
				if calls == 1 {
					return 0, errBoom
				}
				return len(k), nil
			}
			c, err := New(fn, tt.opts...)
			require.NoError(err)

			_, err = c.Call("abc")
			require.ErrorIs(err, errBoom)
			require.Equal(0, c.Stats().Size)

			v, err := c.Call("abc")
			require.NoError(err)
			require.Equal(3, v)
			require.Equal(2, calls)
			require.Equal(uint64(2), c.Stats().Misses)
		})
	}
}

func TestExpiredEntryStaysGoneOnFailure(t *testing.T) {
	require := require.New(t)

	clock := newFakeClock()
	fail := false
	fn := func(k string) (string, error) {
		if fail {
			return "", errBoom
		}
		return k, nil
	}
	c, err := New(fn, WithMaxSize(2), WithTTL(time.Minute), WithClock(clock.Now))
	require.NoError(err)

	_, err = c.Call("a")
	require.NoError(err)

	clock.Advance(time.Hour)
	fail = true
	_, err = c.Call("a")
	require.ErrorIs(err, errBoom)
	require.Equal(0, c.Stats().Size)
}

func TestUnboundedNeverEvicts(t *testing.T) {
	require := require.New(t)

	c, err := New(func(i int) (int, error) { return i * i, nil })
	require.NoError(err)

	const n = 10000
	for i := 0; i < n; i++ {
		_, err := c.Call(i)
		require.NoError(err)
	}
	require.Equal(memocache.Stats{Size: n, MaxSize: memocache.Unbounded, Misses: n}, c.Stats())
}

func TestConfigurationErrors(t *testing.T) {
	fn, _ := upper()
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "negative max size", opts: []Option{WithMaxSize(-1)}},
		{name: "zero ttl", opts: []Option{WithTTL(0)}},
		{name: "negative ttl", opts: []Option{WithMaxSize(4), WithTTL(-time.Second)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(fn, tt.opts...)
			require.ErrorIs(t, err, memocache.ErrConfiguration)
		})
	}

	_, err := New[string, string](nil)
	require.ErrorIs(t, err, memocache.ErrConfiguration)
}

func TestUnhashableKey(t *testing.T) {
	require := require.New(t)

	calls := 0
	c, err := New(func(k any) (string, error) {
		calls++
		return fmt.Sprint(k), nil
	}, WithMaxSize(4))
	require.NoError(err)

	_, err = c.Call([]int{1, 2})
	require.ErrorIs(err, memocache.ErrUnhashableArgument)
	require.Equal(0, calls)
	require.Equal(memocache.Stats{MaxSize: 4}, c.Stats())

	v, err := c.Call([2]int{1, 2})
	require.NoError(err)
	require.Equal("[1 2]", v)
}

func TestWrap(t *testing.T) {
	require := require.New(t)

	fn, calls := upper()
	cached, c, err := Wrap(fn, WithMaxSize(8))
	require.NoError(err)

	for i := 0; i < 3; i++ {
		v, err := cached("lux")
		require.NoError(err)
		require.Equal("LUX", v)
	}
	require.Equal(1, calls["lux"])
	require.Equal(uint64(2), c.Stats().Hits)

	_, _, err = Wrap(fn, WithMaxSize(-3))
	require.ErrorIs(err, memocache.ErrConfiguration)
}

func TestSingleflight(t *testing.T) {
	require := require.New(t)

	var calls atomic.Int32
	release := make(chan struct{})
	c, err := New(func(k string) (string, error) {
		calls.Add(1)
		<-release
		return strings.ToUpper(k), nil
	}, WithMaxSize(4), WithSingleflight())
	require.NoError(err)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Call("k")
			if err == nil {
				results[i] = v
			}
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(int32(1), calls.Load())
	for _, v := range results {
		require.Equal("K", v)
	}
	s := c.Stats()
	require.Equal(uint64(1), s.Misses)
	require.Equal(uint64(callers-1), s.Hits)
	require.Equal(1, s.Size)
}

func TestSingleflightSharesFailure(t *testing.T) {
	require := require.New(t)

	c, err := New(func(string) (int, error) {
		return 0, errBoom
	}, WithSingleflight())
	require.NoError(err)

	_, err = c.Call("k")
	require.ErrorIs(err, errBoom)
	require.Equal(0, c.Stats().Size)
}

func TestConcurrentBounded(t *testing.T) {
	require := require.New(t)

	c, err := New(func(i int) (int, error) { return -i, nil }, WithMaxSize(8), WithTTL(time.Millisecond))
	require.NoError(err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v, err := c.Call((w * i) % 32)
				if err != nil || v != -((w*i)%32) {
					t.Errorf("unexpected result %d, %v", v, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	s := c.Stats()
	require.LessOrEqual(s.Size, 8)
	require.Equal(uint64(8*500), s.Hits+s.Misses)
}

func TestNaNKeysAreNotStored(t *testing.T) {
	require := require.New(t)

	calls := 0
	c, err := New(func(f float64) (int, error) {
		calls++
		return calls, nil
	}, WithMaxSize(2))
	require.NoError(err)

	for i := 0; i < 1000; i++ {
		_, err := c.Call(math.NaN())
		require.NoError(err)
	}
	require.Equal(1000, calls)
	require.Equal(memocache.Stats{MaxSize: 2, Misses: 1000}, c.Stats())

	// Ordinary keys are cached as usual
	_, err = c.Call(1.5)
	require.NoError(err)
	_, err = c.Call(1.5)
	require.NoError(err)
	require.Equal(memocache.Stats{Size: 1, MaxSize: 2, Hits: 1, Misses: 1001}, c.Stats())
}

func TestNaNInsideInterfaceKey(t *testing.T) {
	require := require.New(t)

	type point struct{ X, Y float64 }
	c, err := New(func(k any) (string, error) {
		return fmt.Sprint(k), nil
	})
	require.NoError(err)

	for i := 0; i < 100; i++ {
		_, err := c.Call(point{X: math.NaN()})
		require.NoError(err)
	}
	require.Equal(memocache.Stats{MaxSize: memocache.Unbounded, Misses: 100}, c.Stats())
}
