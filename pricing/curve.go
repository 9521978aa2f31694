package pricing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/chain"
	"go.uber.org/zap"
)

// CurveRouter prices Curve LP tokens. The calculations contract answers
// directly in USDC; otherwise the registries give the pool virtual price,
// multiplied by the price of the pool's first underlying coin.
type CurveRouter struct {
	calculations      *chain.Contract
	calculationsGuard guard
	usdcDecimals      int32

	registries []*chain.Contract
	guards     []guard

	// underlying prices pool coins, it never includes the router itself.
	underlying Oracle
}

func NewCurveRouter(calculations *Contract, registries []Contract, usdcDecimals int32, underlying Oracle, caller chain.Caller) *CurveRouter {
	r := &CurveRouter{usdcDecimals: usdcDecimals, underlying: underlying}
	if calculations != nil {
		r.calculations = chain.NewContract(common.HexToAddress(calculations.Address), CurveCalculationsABI, caller)
		r.calculationsGuard = newGuard(*calculations)
	}
	for _, registry := range registries {
		r.registries = append(r.registries, chain.NewContract(common.HexToAddress(registry.Address), CurveRegistryABI, caller))
		r.guards = append(r.guards, newGuard(registry))
	}
	return r
}

func (o *CurveRouter) Name() string { return "CurveRouter" }

func (o *CurveRouter) Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	if o.calculations != nil && o.calculationsGuard.allows(token, block) {
		out, err := o.calculations.Call(ctx, block, "getCurvePriceUsdc", token)
		if err != nil && !chain.IsReverted(err) {
			return Empty(), err
		}
		if err == nil {
			if price := NewPrice(firstUint(out), o.usdcDecimals, o.Name()); !price.Reverted() {
				return price, nil
			}
		}
	}

	for i, registry := range o.registries {
		if !o.guards[i].allows(token, block) {
			continue
		}

		price, err := o.registryPrice(ctx, registry, token, block)
		if err != nil {
			return Empty(), err
		}
		if !price.Reverted() {
			return price, nil
		}
	}
	return Empty(), nil
}

func (o *CurveRouter) registryPrice(ctx context.Context, registry *chain.Contract, token common.Address, block *big.Int) (CustomPrice, error) {
	out, err := registry.Call(ctx, block, "get_pool_from_lp_token", token)
	if err != nil {
		return emptyOnRevert(err)
	}
	pool := out[0].(common.Address)
	if pool == (common.Address{}) {
		return Empty(), nil
	}

	out, err = registry.Call(ctx, block, "get_virtual_price_from_lp_token", token)
	if err != nil {
		return emptyOnRevert(err)
	}
	virtualPrice := firstUint(out)
	if virtualPrice == nil || virtualPrice.Sign() == 0 {
		return Empty(), nil
	}

	out, err = registry.Call(ctx, block, "get_underlying_coins", pool)
	if err != nil {
		return emptyOnRevert(err)
	}
	coins := out[0].([8]common.Address)

	var coin common.Address
	for _, candidate := range coins {
		if candidate != (common.Address{}) {
			coin = candidate
			break
		}
	}
	if coin == (common.Address{}) || o.underlying == nil {
		return Empty(), nil
	}

	basePrice, err := o.underlying.Price(ctx, coin, block)
	if err != nil {
		return Empty(), err
	}
	if basePrice.Reverted() {
		zlog.Debug("curve pool underlying has no price", zap.Stringer("pool", pool), zap.Stringer("coin", coin))
		return Empty(), nil
	}

	raw := decimal.NewFromBigInt(virtualPrice, 0).Mul(basePrice.USDPrice())
	return NewPriceFromDecimal(raw, 18, o.Name()), nil
}
