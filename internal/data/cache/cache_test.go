package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := New()

	_, err := c.Get(ctx, "priceindex:table")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "priceindex:table", []byte("2020,100"), time.Minute))

	got, err := c.Get(ctx, "priceindex:table")
	require.NoError(t, err)
	assert.Equal(t, []byte("2020,100"), got)
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := New()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := New()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(2 * time.Millisecond)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemory_CopiesPayload(t *testing.T) {
	ctx := context.Background()
	c := New()

	val := []byte("original")
	require.NoError(t, c.Set(ctx, "k", val, 0))
	val[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestNewAuto_DefaultsToMemory(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")

	c := NewAuto()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
