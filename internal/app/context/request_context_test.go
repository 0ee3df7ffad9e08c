package context

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	rc := New(ctx)

	assert.NotNil(t, rc)
	assert.Equal(t, ctx, rc.Context())
	assert.Zero(t, rc.Len())
}

func TestFromContext_NilContext(t *testing.T) {
	rc := FromContext(nil) //nolint:staticcheck // nil context is the case under test
	assert.Nil(t, rc)
}

func TestFromContext_NoRequestContext(t *testing.T) {
	rc := FromContext(context.Background())
	assert.Nil(t, rc)
}

func TestWithContext_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rc := New(ctx)

	enrichedCtx := WithContext(ctx, rc)
	extracted := FromContext(enrichedCtx)

	assert.Same(t, rc, extracted)
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		id      string
		include []string
		want    string
	}{
		{name: "bare", kind: "card", id: "42", want: "card:42"},
		{name: "with include", kind: "card", id: "42", include: []string{"set"}, want: "card:42?set"},
		{name: "include order ignored", kind: "card", id: "42", include: []string{"set", "card-images"}, want: "card:42?card-images,set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.kind, tt.id, tt.include...))
		})
	}
}

func TestKey_DoesNotReorderCallerSlice(t *testing.T) {
	include := []string{"set", "card-images"}

	_ = Key("card", "1", include...)

	assert.Equal(t, []string{"set", "card-images"}, include)
}

func TestGetOrFetch_CachesValue(t *testing.T) {
	rc := New(context.Background())

	var callCount int32
	fetchFn := func(_ context.Context) (any, error) {
		atomic.AddInt32(&callCount, 1)
		return "cached-value", nil
	}

	val1, err := rc.GetOrFetch(t.Context(), "card:1", fetchFn)
	require.NoError(t, err)
	assert.Equal(t, "cached-value", val1)

	val2, err := rc.GetOrFetch(t.Context(), "card:1", fetchFn)
	require.NoError(t, err)
	assert.Equal(t, "cached-value", val2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&callCount))
	assert.Equal(t, 1, rc.Len())
}

func TestGetOrFetch_ErrorsAreNotCached(t *testing.T) {
	rc := New(context.Background())

	expectedErr := errors.New("fetch failed")
	calls := 0
	fetchFn := func(_ context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, expectedErr
		}
		return "second", nil
	}

	val, err := rc.GetOrFetch(t.Context(), "card:1", fetchFn)
	assert.Nil(t, val)
	require.ErrorIs(t, err, expectedErr)

	val, err = rc.GetOrFetch(t.Context(), "card:1", fetchFn)
	require.NoError(t, err)
	assert.Equal(t, "second", val)
}

func TestGetOrFetch_UsesCallerContext(t *testing.T) {
	rc := New(context.Background())

	type marker struct{}
	ctx := context.WithValue(t.Context(), marker{}, "caller")

	_, err := rc.GetOrFetch(ctx, "card:1", func(ctx context.Context) (any, error) {
		return ctx.Value(marker{}), nil
	})

	require.NoError(t, err)
	got, _ := rc.GetOrFetch(ctx, "card:1", nil)
	assert.Equal(t, "caller", got)
}

func TestGetOrFetch_SharesConcurrentFetch(t *testing.T) {
	rc := New(context.Background())

	var calls int32
	release := make(chan struct{})
	fetchFn := func(_ context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]any, n)

	for i := range n {
		wg.Go(func() {
			v, err := rc.GetOrFetch(t.Context(), "set:7", fetchFn)
			assert.NoError(t, err)
			results[i] = v
		})
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestForget(t *testing.T) {
	rc := New(context.Background())
	value := func(_ context.Context) (any, error) { return 1, nil }

	for _, key := range []string{
		Key("card", "1"),
		Key("card", "1", "set"),
		Key("card", "10"),
		Key("set", "1"),
	} {
		_, err := rc.GetOrFetch(t.Context(), key, value)
		require.NoError(t, err)
	}

	rc.Forget("card", "1")

	assert.Equal(t, 2, rc.Len())

	var fetched bool
	_, err := rc.GetOrFetch(t.Context(), Key("card", "10"), func(_ context.Context) (any, error) {
		fetched = true
		return 2, nil
	})
	require.NoError(t, err)
	assert.False(t, fetched, "card:10 must survive forgetting card:1")
}
