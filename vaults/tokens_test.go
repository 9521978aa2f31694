package vaults

import (
	"context"
	"testing"

	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/tokenlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateToken_Fallbacks(t *testing.T) {
	var mkr [32]byte
	copy(mkr[:], "Maker")

	caller := chain.NewMockCaller().
		Revert(usdcAddr, ERC20ABI, "decimals").
		On(usdcAddr, ERC20Bytes32ABI, "name", mkr)
	s := newTestSubgraph(t, caller, fakeResolver{}, nil)
	ctx := context.Background()

	token, err := s.getOrCreateToken(ctx, usdcAddr)
	require.NoError(t, err)

	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", token.ID)
	assert.Equal(t, int32(DecimalsSentinel), token.Decimals)
	assert.Equal(t, "Maker", token.Name)
	assert.Equal(t, UnknownName, token.Symbol)
	assert.Equal(t, int32(18), scaleDecimals(token))

	calls := len(caller.Calls)
	again, err := s.getOrCreateToken(ctx, usdcAddr)
	require.NoError(t, err)
	assert.Equal(t, token.Name, again.Name)
	assert.Len(t, caller.Calls, calls, "second lookup must not hit the chain")
}

func TestGetOrCreateToken_TokenList(t *testing.T) {
	list, err := tokenlist.Parse([]byte(`{"name":"test","tokens":[
		{"chainId":1,"address":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","name":"USD Coin","symbol":"USDC","decimals":6}
	]}`), 1)
	require.NoError(t, err)

	caller := chain.NewMockCaller()
	s := newTestSubgraph(t, caller, fakeResolver{}, list)

	token, err := s.getOrCreateToken(context.Background(), usdcAddr)
	require.NoError(t, err)
	assert.Equal(t, "USDC", token.Symbol)
	assert.Equal(t, int32(6), token.Decimals)
	assert.Empty(t, caller.Calls)
}

func TestGetOrCreateToken_TransportError(t *testing.T) {
	caller := chain.NewMockCaller().Fail(usdcAddr, ERC20ABI, "decimals", assert.AnError)
	s := newTestSubgraph(t, caller, fakeResolver{}, nil)

	_, err := s.getOrCreateToken(context.Background(), usdcAddr)
	require.ErrorIs(t, err, assert.AnError)

	token := entity.NewToken(addressID(usdcAddr))
	require.NoError(t, s.loader.Load(context.Background(), token))
	assert.False(t, token.Exists())
}

func TestUpdateTokenPrice_KeepsLastPriceOnEmpty(t *testing.T) {
	prices := fakeResolver{usdcAddr: usd(1)}
	s := newTestSubgraph(t, mockUSDCVault(chain.NewMockCaller()), prices, nil)
	ctx := context.Background()

	token, err := s.getOrCreateToken(ctx, usdcAddr)
	require.NoError(t, err)

	price, err := s.updateTokenPrice(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "1", price.String())

	delete(prices, usdcAddr)
	s.block = testBlock(101)
	price, err = s.updateTokenPrice(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "1", price.String())
	assert.Equal(t, uint64(100), token.LastPriceBlockNumber)
}
