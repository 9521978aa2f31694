package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/streamingfast/defi-subgraphs/chain"
)

// ChainlinkUSD is the denomination address the feed registry uses for USD.
var ChainlinkUSD = common.HexToAddress("0x0000000000000000000000000000000000000348")

type ChainlinkFeed struct {
	guard
	registry *chain.Contract
}

func NewChainlinkFeed(contract Contract, caller chain.Caller) *ChainlinkFeed {
	return &ChainlinkFeed{
		guard:    newGuard(contract),
		registry: chain.NewContract(common.HexToAddress(contract.Address), FeedRegistryABI, caller),
	}
}

func (o *ChainlinkFeed) Name() string { return "ChainlinkFeed" }

func (o *ChainlinkFeed) Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	if !o.allows(token, block) {
		return Empty(), nil
	}

	round, err := o.registry.Call(ctx, block, "latestRoundData", token, ChainlinkUSD)
	if err != nil {
		return emptyOnRevert(err)
	}
	answer, _ := round[1].(*big.Int)
	if answer == nil || answer.Sign() <= 0 {
		return Empty(), nil
	}

	out, err := o.registry.Call(ctx, block, "decimals", token, ChainlinkUSD)
	if err != nil {
		return emptyOnRevert(err)
	}

	return NewPrice(answer, int32(out[0].(uint8)), o.Name()), nil
}
