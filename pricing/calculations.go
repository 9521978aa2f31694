package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/streamingfast/defi-subgraphs/chain"
)

// singleCallOracle covers the sources answering with one uint256 for a token
// address in a fixed precision.
type singleCallOracle struct {
	guard
	name     string
	method   string
	decimals int32
	contract *chain.Contract
}

func (o *singleCallOracle) Name() string { return o.name }

func (o *singleCallOracle) Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	if !o.allows(token, block) {
		return Empty(), nil
	}

	out, err := o.contract.Call(ctx, block, o.method, token)
	if err != nil {
		return emptyOnRevert(err)
	}
	return NewPrice(firstUint(out), o.decimals, o.name), nil
}

func newSingleCallOracle(name, method string, decimals int32, contract Contract, parsed abi.ABI, caller chain.Caller) *singleCallOracle {
	return &singleCallOracle{
		guard:    newGuard(contract),
		name:     name,
		method:   method,
		decimals: decimals,
		contract: chain.NewContract(common.HexToAddress(contract.Address), parsed, caller),
	}
}

func NewSushiCalculations(contract Contract, usdcDecimals int32, caller chain.Caller) Oracle {
	return newSingleCallOracle("SushiCalculations", "getPriceUsdc", usdcDecimals, contract, SushiCalculationsABI, caller)
}

func NewYearnLens(contract Contract, usdcDecimals int32, caller chain.Caller) Oracle {
	return newSingleCallOracle("YearnLens", "getPriceUsdcRecommended", usdcDecimals, contract, YearnLensABI, caller)
}

func NewAaveOracle(contract AaveContract, caller chain.Caller) Oracle {
	return newSingleCallOracle("AaveOracle", "getAssetPrice", contract.Decimals, contract.Contract, AaveOracleABI, caller)
}
