package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/networks"
	"github.com/streamingfast/defi-subgraphs/storage"
	"github.com/streamingfast/defi-subgraphs/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := openStore(ctx, "kv://"+t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = openStore(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &kv.Store{}, store)

	for _, bad := range []string{"kv://", "redis://localhost", "://"} {
		_, err := openStore(ctx, bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveStartBlock(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	start, err := resolveStartBlock(ctx, store, -1, 12588794)
	require.NoError(t, err)
	assert.Equal(t, uint64(12588794), start)

	start, err = resolveStartBlock(ctx, store, 500, 12588794)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), start)

	cursor := entity.NewCursor(storage.CursorID)
	cursor.BlockNumber = 13000000
	require.NoError(t, store.BatchSave(ctx, 13000000, storage.Updates{}, cursor))

	start, err = resolveStartBlock(ctx, store, -1, 12588794)
	require.NoError(t, err)
	assert.Equal(t, uint64(13000001), start)
}

func TestRouter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := &health{maxIdle: time.Minute, now: func() time.Time { return now }}
	server := httptest.NewServer(newRouter(h))
	defer server.Close()

	get := func(path string) int {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusServiceUnavailable, get("/healthz"))

	h.processed()
	assert.Equal(t, http.StatusOK, get("/healthz"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusServiceUnavailable, get("/healthz"))

	assert.Equal(t, http.StatusOK, get("/metrics"))
	assert.Equal(t, http.StatusNotFound, get("/unknown"))
}

func TestTargets(t *testing.T) {
	out := targets(networks.Default(), "https://example.com/{slug}-{network}")
	require.NotEmpty(t, out)

	for _, target := range out {
		assert.Contains(t, target.Endpoint, "-"+target.Network)
		assert.NotContains(t, target.Endpoint, "{")
	}
	assert.Equal(t, "yearn-v2/mainnet", out[0].Name)
}

func TestPrintDeltas(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := kv.NewMemory()
	require.NoError(t, printDeltas(ctx, store, []string{"vault", "deposit"}))
	err := printDeltas(ctx, kv.NewMemory(), []string{"pair"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy_report")

	vault := entity.NewVault("0x01")
	require.NoError(t, store.BatchSave(ctx, 1, storage.Updates{"vault": {vault.ID: vault}}, nil))
}
