package loader

import (
	"context"
	"testing"

	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/storage"
	"github.com/streamingfast/defi-subgraphs/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*kv.Store
	loads int
}

func (s *countingStore) Load(ctx context.Context, id string, ent entity.Entity) error {
	s.loads++
	return s.Store.Load(ctx, id, ent)
}

func TestLoader_LoadSaveFlush(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: kv.NewMemory()}
	l := New(store, entity.Definition)

	token := entity.NewToken("0x01")
	require.NoError(t, l.Load(ctx, token))
	assert.False(t, token.Exists())

	token.Symbol = "ABC"
	require.NoError(t, l.Save(token))
	assert.True(t, token.Exists())

	// Mutations after save are not visible until saved again.
	token.Symbol = "mutated"

	again := entity.NewToken("0x01")
	require.NoError(t, l.Load(ctx, again))
	assert.True(t, again.Exists())
	assert.Equal(t, "ABC", again.Symbol)
	assert.Equal(t, 1, store.loads)

	require.NoError(t, l.Flush(ctx, &entity.Cursor{BlockNumber: 10}))

	fromStore := entity.NewToken("0x01")
	require.NoError(t, l.Load(ctx, fromStore))
	assert.Equal(t, "ABC", fromStore.Symbol)
	assert.Equal(t, 2, store.loads)

	// Second read in the same block comes from the read cache.
	cached := entity.NewToken("0x01")
	require.NoError(t, l.Load(ctx, cached))
	assert.Equal(t, "ABC", cached.Symbol)
	assert.Equal(t, 2, store.loads)

	cursor, err := store.LoadCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cursor.BlockNumber)
}

func TestLoader_MissingIsCached(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: kv.NewMemory()}
	l := New(store, entity.Definition)

	for i := 0; i < 3; i++ {
		account := entity.NewAccount("0xabc")
		require.NoError(t, l.Load(ctx, account))
		assert.False(t, account.Exists())
	}
	assert.Equal(t, 1, store.loads)
}

func TestLoader_Remove(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	l := New(store, entity.Definition)

	require.NoError(t, l.Save(entity.NewActiveAccount("daily-0x01-19000")))
	require.NoError(t, l.Flush(ctx, &entity.Cursor{BlockNumber: 1}))

	l.Remove("active_account", "daily-0x01-19000")

	marker := entity.NewActiveAccount("daily-0x01-19000")
	require.NoError(t, l.Load(ctx, marker))
	assert.False(t, marker.Exists())

	require.NoError(t, l.Flush(ctx, &entity.Cursor{BlockNumber: 2}))

	marker = entity.NewActiveAccount("daily-0x01-19000")
	require.NoError(t, store.Load(ctx, marker.ID, marker))
	assert.False(t, marker.Exists())
}

func TestLoader_RequiresID(t *testing.T) {
	l := New(kv.NewMemory(), entity.Definition)

	assert.Error(t, l.Load(context.Background(), entity.NewVault("")))
	assert.Error(t, l.Save(entity.NewVault("")))
}

var _ storage.Store = (*countingStore)(nil)
