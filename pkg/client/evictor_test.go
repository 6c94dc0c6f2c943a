package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/hearty/internal/heartypb"
)

func TestEvictionHandlerWritesBackAndAcknowledges(t *testing.T) {
	store := newFakeStore()
	c, err := NewCache(t.TempDir(), DefaultMaxCacheSize, store)
	require.NoError(t, err)

	id, err := c.CacheablePut(context.Background(), "1", "/a", []byte("v1"))
	require.NoError(t, err)
	_, err = c.CacheablePut(context.Background(), "1", "/a", []byte("v2"))
	require.NoError(t, err)

	h := NewEvictionHandler(c)
	resp, err := h.Evict(context.Background(), &heartypb.EvictRequest{FileID: id})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, []byte("v2"), store.content[id])
	assert.Equal(t, 0, c.Len())
}

func TestEvictionHandlerAbsentObjectStillSucceeds(t *testing.T) {
	store := newFakeStore()
	c, err := NewCache(t.TempDir(), DefaultMaxCacheSize, store)
	require.NoError(t, err)

	h := NewEvictionHandler(c)
	resp, err := h.Evict(context.Background(), &heartypb.EvictRequest{FileID: "ghost"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}
