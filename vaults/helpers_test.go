package vaults

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/loader"
	"github.com/streamingfast/defi-subgraphs/networks"
	"github.com/streamingfast/defi-subgraphs/pricing"
	"github.com/streamingfast/defi-subgraphs/storage/kv"
	"github.com/streamingfast/defi-subgraphs/tokenlist"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

var (
	vaultAddr    = common.HexToAddress("0xa354F35829Ae975e850e23e9615b11Da1B3dC4DE")
	usdcAddr     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	rewarderAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	rewardAddr   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	alice        = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	testTime = time.Unix(1_700_000_000, 0).UTC()
)

type fakeResolver map[common.Address]pricing.CustomPrice

func (f fakeResolver) GetUsdPricePerToken(ctx context.Context, token common.Address, block *big.Int) (pricing.CustomPrice, error) {
	if price, found := f[token]; found {
		return price, nil
	}
	return pricing.Empty(), nil
}

func usd(units int64) pricing.CustomPrice {
	return pricing.NewPrice(big.NewInt(units*1_000_000), 6, "test")
}

func testConfig() *networks.Config {
	return &networks.Config{
		Protocol:                 "yearn-v2",
		Network:                  "mainnet",
		Name:                     "Yearn v2",
		Slug:                     "yearn-v2",
		SchemaVersion:            "1.3.0",
		DefaultPerformanceFeeBps: 2000,
		Vaults: []networks.VaultSource{
			{Address: vaultAddr.Hex(), StartBlock: 100, Rewarder: rewarderAddr.Hex()},
		},
	}
}

type testSubgraph struct {
	*Subgraph
	store  *kv.Store
	caller *chain.MockCaller
}

func newTestSubgraph(t *testing.T, caller *chain.MockCaller, prices fakeResolver, tokens *tokenlist.List) *testSubgraph {
	t.Helper()

	store := kv.NewMemory()
	s := New(testConfig(), loader.New(store, entity.Definition), prices, caller, tokens)
	s.block = testBlock(100)
	return &testSubgraph{Subgraph: s, store: store, caller: caller}
}

func (s *testSubgraph) load(t *testing.T, ent entity.Entity) {
	t.Helper()
	require.NoError(t, s.store.Load(context.Background(), ent.GetID(), ent))
	require.True(t, ent.Exists(), "%s %s not stored", ent.TableName(), ent.GetID())
}

func testBlock(num uint64) chain.Block {
	return chain.Block{
		Number:    num,
		Hash:      eth.Hash(common.BigToHash(new(big.Int).SetUint64(num)).Bytes()),
		Timestamp: testTime.Add(time.Duration(num-100) * 12 * time.Second),
	}
}

// mockUSDCVault registers the reads made while creating and refreshing a
// USDC vault holding 1000 USDC for 950 shares.
func mockUSDCVault(caller *chain.MockCaller) *chain.MockCaller {
	return caller.
		On(vaultAddr, VaultABI, "token", usdcAddr).
		On(vaultAddr, VaultABI, "performanceFee", big.NewInt(1000)).
		On(vaultAddr, VaultABI, "totalAssets", big.NewInt(1_000_000_000)).
		On(vaultAddr, VaultABI, "totalSupply", big.NewInt(950_000_000)).
		On(vaultAddr, VaultABI, "pricePerShare", big.NewInt(1_050_000)).
		On(vaultAddr, ERC20ABI, "decimals", uint8(6)).
		On(vaultAddr, ERC20ABI, "name", "USDC yVault").
		On(vaultAddr, ERC20ABI, "symbol", "yvUSDC").
		On(usdcAddr, ERC20ABI, "decimals", uint8(6)).
		On(usdcAddr, ERC20ABI, "name", "USD Coin").
		On(usdcAddr, ERC20ABI, "symbol", "USDC")
}

func makeLog(t *testing.T, emitter common.Address, event abi.Event, txIndex byte, logIndex uint, indexed []common.Address, data ...interface{}) types.Log {
	t.Helper()

	topics := []common.Hash{event.ID}
	for _, addr := range indexed {
		topics = append(topics, common.BytesToHash(addr.Bytes()))
	}

	packed, err := event.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)

	return types.Log{
		Address: emitter,
		Topics:  topics,
		Data:    packed,
		TxHash:  common.BytesToHash([]byte{txIndex}),
		Index:   logIndex,
	}
}

func depositLog(t *testing.T, logIndex uint, owner common.Address, assets, shares int64) types.Log {
	return makeLog(t, vaultAddr, erc4626EventsABI.Events["Deposit"], 1, logIndex, []common.Address{owner, owner}, big.NewInt(assets), big.NewInt(shares))
}

func withdrawLog(t *testing.T, logIndex uint, owner common.Address, assets, shares int64) types.Log {
	return makeLog(t, vaultAddr, erc4626EventsABI.Events["Withdraw"], 2, logIndex, []common.Address{owner, owner, owner}, big.NewInt(assets), big.NewInt(shares))
}
