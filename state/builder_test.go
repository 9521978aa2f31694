package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateBuilder(t *testing.T) {
	s := New("", nil)
	s.Set(0, "1", []byte("val1"))
	s.Set(1, "1", []byte("val2"))
	s.Set(3, "1", []byte("val3"))
	s.Flush()
	assert.Empty(t, s.Deltas)

	s.Set(0, "1", []byte("val4"))
	s.Del(4, "1")
	s.Set(5, "1", []byte("val7"))
	s.Del(6, "missing")

	require.Len(t, s.Deltas, 3)
	assert.Equal(t, "u", s.Deltas[0].Op)
	assert.Equal(t, "val3", string(s.Deltas[0].OldValue))
	assert.Equal(t, "d", s.Deltas[1].Op)
	assert.Equal(t, "val4", string(s.Deltas[1].OldValue))
	assert.Equal(t, "c", s.Deltas[2].Op)
	assert.Equal(t, uint64(5), s.Deltas[2].Ordinal)

	val, found := s.GetLast("1")
	assert.Equal(t, "val7", string(val))
	assert.True(t, found)
}

func TestStateBuilder_CreatedInBlock(t *testing.T) {
	s := New("", nil)
	s.Set(2, "vault:0xabc", []byte("v1"))

	val, found := s.GetLast("vault:0xabc")
	assert.True(t, found)
	assert.Equal(t, "v1", string(val))

	s.Set(3, "vault:0xabc", []byte("v1"))
	assert.Len(t, s.Deltas, 1, "identical value is not a new delta")

	assert.Panics(t, func() { s.Set(1, "other", []byte("x")) })
}

func TestStateBuilder_Checkpoints(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := New("entities", NewDiskStateIOFactory(dir)).WithCheckpointInterval(100)

	_, found, err := s.Init(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	s.Set(1, "a", []byte("1"))
	require.NoError(t, s.StoreBlock(ctx, 150))
	assert.FileExists(t, dir+"/100-entities.kv")

	s.Set(1, "a", []byte("2"))
	require.NoError(t, s.StoreBlock(ctx, 199))
	s.Set(1, "b", []byte("3"))
	require.NoError(t, s.StoreBlock(ctx, 230))
	assert.FileExists(t, dir+"/200-entities.kv")

	s.Set(1, "c", []byte("4"))
	require.NoError(t, s.StoreBlock(ctx, 231))

	restored := New("entities", NewDiskStateIOFactory(dir))
	checkpoint, found, err := restored.Init(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(200), checkpoint)

	val, found := restored.GetLast("a")
	assert.True(t, found)
	assert.Equal(t, "2", string(val))

	_, found = restored.GetLast("c")
	assert.False(t, found, "block 231 did not cross a checkpoint")
}
