package loadercache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexcoach/telemetry-coach/pkg/utils/cache"
)

func TestLoaderCache(t *testing.T) {
	calls := 0
	c := New(WithLoader(func(key string) (*int, error) {
		calls++
		v := len(key)
		return &v, nil
	}))
	ctx := context.Background()

	got, err := c.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, 7, *got)

	_, err = c.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "loader must not run again for a cached key")

	c.Invalidate(ctx, "session")
	_, err = c.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "invalidation must force a reload")
}

func TestLoaderCache_Errors(t *testing.T) {
	wantErr := errors.New("source gone")
	c := New(WithLoader(func(string) (*int, error) {
		return nil, wantErr
	}))
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, wantErr)

	noLoader := New[string, int]()
	_, err = noLoader.Get(context.Background(), "x")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
