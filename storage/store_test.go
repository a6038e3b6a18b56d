package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	_, err := s.Get(ctx, "icons/s1")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "icons/s1", []byte("png"), "image/png"))
	obj, err := s.Get(ctx, "icons/s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, 3, obj.Size)

	obj.Data[0] = 'x'
	again, _ := s.Get(ctx, "icons/s1")
	assert.Equal(t, []byte("png"), again.Data, "callers get a copy")
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", []byte("1"), "image/png"))
	time.Sleep(time.Millisecond)
	require.NoError(t, s.Put(ctx, "b", []byte("2"), "image/png"))
	time.Sleep(time.Millisecond)
	require.NoError(t, s.Put(ctx, "c", []byte("3"), "image/png"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryStore_ListAndDeletePrefix(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	for _, k := range []string{"icons/b", "icons/a", "other/x"} {
		require.NoError(t, s.Put(ctx, k, []byte(k), "image/png"))
	}

	objs, err := s.List(ctx, "icons/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "icons/a", objs[0].Key)
	assert.Nil(t, objs[0].Data)

	n, err := s.DeletePrefix(ctx, "icons/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	objs, _ = s.List(ctx, "")
	assert.Len(t, objs, 1)
}
