package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/streamingfast/defi-subgraphs/chain"
)

// UniswapForkRouter quotes one whole token through a Uniswap v2 style router,
// routing through WETH unless the token is WETH itself.
type UniswapForkRouter struct {
	guard
	name         string
	router       *chain.Contract
	caller       chain.Caller
	weth         common.Address
	usdc         common.Address
	usdcDecimals int32
}

func NewUniswapForkRouter(router Router, weth, usdc common.Address, usdcDecimals int32, caller chain.Caller) *UniswapForkRouter {
	name := router.Name
	if name == "" {
		name = "UniswapForkRouter"
	}
	return &UniswapForkRouter{
		guard:        newGuard(router.Contract),
		name:         name,
		router:       chain.NewContract(common.HexToAddress(router.Address), UniswapRouterABI, caller),
		caller:       caller,
		weth:         weth,
		usdc:         usdc,
		usdcDecimals: usdcDecimals,
	}
}

func (o *UniswapForkRouter) Name() string { return o.name }

func (o *UniswapForkRouter) Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	if !o.allows(token, block) || token == o.usdc {
		return Empty(), nil
	}

	decimals, err := tokenDecimals(ctx, o.caller, token, block)
	if err != nil {
		return emptyOnRevert(err)
	}
	amountIn := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	paths := [][]common.Address{{token, o.weth, o.usdc}, {token, o.usdc}}
	if token == o.weth {
		paths = [][]common.Address{{token, o.usdc}}
	}

	for _, path := range paths {
		out, err := o.router.Call(ctx, block, "getAmountsOut", amountIn, path)
		if err != nil {
			if chain.IsReverted(err) {
				continue
			}
			return Empty(), err
		}

		amounts := out[0].([]*big.Int)
		if len(amounts) == 0 {
			continue
		}
		if price := NewPrice(amounts[len(amounts)-1], o.usdcDecimals, o.Name()); !price.Reverted() {
			return price, nil
		}
	}
	return Empty(), nil
}
