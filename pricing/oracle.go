package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/streamingfast/defi-subgraphs/chain"
)

// Oracle is one price source. A reverted call or a source that has nothing to
// say about the token yields an empty price and a nil error; only transport
// failures come back as errors.
type Oracle interface {
	Name() string
	Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error)
}

// Chain tries its oracles in order and keeps the first usable price.
type Chain []Oracle

func (c Chain) Name() string { return "chain" }

func (c Chain) Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	for _, oracle := range c {
		price, err := oracle.Price(ctx, token, block)
		if err != nil {
			return Empty(), err
		}
		if !price.Reverted() {
			return price, nil
		}
	}
	return Empty(), nil
}

func emptyOnRevert(err error) (CustomPrice, error) {
	if chain.IsReverted(err) {
		return Empty(), nil
	}
	return Empty(), err
}

func firstUint(values []interface{}) *big.Int {
	if len(values) == 0 {
		return nil
	}
	v, _ := values[0].(*big.Int)
	return v
}

func tokenDecimals(ctx context.Context, caller chain.Caller, token common.Address, block *big.Int) (int32, error) {
	out, err := chain.NewContract(token, ERC20ABI, caller).Call(ctx, block, "decimals")
	if err != nil {
		return 0, err
	}
	return int32(out[0].(uint8)), nil
}
