package app

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallel2(t *testing.T) {
	t.Run("both succeed", func(t *testing.T) {
		a, b, err := Parallel2(t.Context(),
			func(context.Context) (string, error) { return "set", nil },
			func(context.Context) (int, error) { return 3, nil },
		)

		require.NoError(t, err)
		assert.Equal(t, "set", a)
		assert.Equal(t, 3, b)
	})

	t.Run("error zeroes both results", func(t *testing.T) {
		boom := errors.New("boom")

		a, b, err := Parallel2(t.Context(),
			func(context.Context) (string, error) { return "set", nil },
			func(context.Context) (int, error) { return 3, boom },
		)

		require.ErrorIs(t, err, boom)
		assert.Empty(t, a)
		assert.Zero(t, b)
	})

	t.Run("failure cancels sibling", func(t *testing.T) {
		_, _, err := Parallel2(t.Context(),
			func(ctx context.Context) (int, error) {
				<-ctx.Done()
				return 0, ctx.Err()
			},
			func(context.Context) (int, error) { return 0, errors.New("first") },
		)

		require.Error(t, err)
	})
}

func TestForEach(t *testing.T) {
	keys := []string{"3", "1", "2"}

	t.Run("results follow key order", func(t *testing.T) {
		got, err := ForEach(t.Context(), 2, keys, func(_ context.Context, k string) (int, error) {
			n, _ := strconv.Atoi(k)
			time.Sleep(time.Duration(n) * time.Millisecond)
			return n * 10, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []int{30, 10, 20}, got)
	})

	t.Run("error returned unwrapped", func(t *testing.T) {
		boom := errors.New("boom")

		got, err := ForEach(t.Context(), 0, keys, func(_ context.Context, k string) (int, error) {
			if k == "1" {
				return 0, boom
			}
			return 1, nil
		})

		assert.Nil(t, got)
		assert.Same(t, boom, err)
	})

	t.Run("limit bounds in-flight calls", func(t *testing.T) {
		var inFlight, peak int32
		many := make([]string, 20)
		for i := range many {
			many[i] = strconv.Itoa(i)
		}

		_, err := ForEach(t.Context(), 3, many, func(context.Context, string) (struct{}, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return struct{}{}, nil
		})

		require.NoError(t, err)
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	})
}

func TestForEachPartial(t *testing.T) {
	boom := errors.New("boom")

	results := ForEachPartial(t.Context(), 2, []string{"a", "b", "c"}, func(_ context.Context, k string) (string, error) {
		if k == "b" {
			return "", boom
		}
		return k + "!", nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, PartialResult[string]{Key: "a", Value: "a!"}, results[0])
	assert.Equal(t, "b", results[1].Key)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "c!", results[2].Value)
}

func TestForEachPartial_CanceledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	release := make(chan struct{})

	done := make(chan []PartialResult[int])
	go func() {
		done <- ForEachPartial(ctx, 1, []string{"a", "b", "c"}, func(context.Context, string) (int, error) {
			<-release
			return 1, nil
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(release)

	results := <-done

	canceled := 0
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			canceled++
		}
	}
	assert.Equal(t, 2, canceled, "only the call holding the slot runs")
}

func TestForEachPartial_UnboundedEmpty(t *testing.T) {
	results := ForEachPartial(t.Context(), 0, nil, func(context.Context, string) (int, error) {
		return 0, nil
	})

	assert.Empty(t, results)
}
