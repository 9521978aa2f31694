package pricing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/metrics"
	"go.uber.org/zap"
)

// Resolver walks the price sources of a network in a fixed order: Chainlink,
// Curve, the Uniswap fork routers, Sushi calculations, Yearn lens and the Aave
// oracle. Nothing is cached, every lookup runs the whole chain.
type Resolver struct {
	stables map[common.Address]bool
	oracles []Oracle
}

func NewResolver(config Config, caller chain.Caller) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	usdcDecimals := config.USDCDecimals
	if usdcDecimals == 0 {
		usdcDecimals = 6
	}
	weth := common.HexToAddress(config.WETH)
	usdc := common.HexToAddress(config.USDC)

	var chainlink Oracle
	var routers []Oracle
	if config.ChainlinkFeedRegistry != nil {
		chainlink = NewChainlinkFeed(*config.ChainlinkFeedRegistry, caller)
	}
	for _, router := range config.UniswapForkRouters {
		routers = append(routers, NewUniswapForkRouter(router, weth, usdc, usdcDecimals, caller))
	}

	var oracles []Oracle
	if chainlink != nil {
		oracles = append(oracles, chainlink)
	}

	if config.CurveCalculations != nil || len(config.CurveRegistries) > 0 {
		underlying := Chain{hardcodedStables(stableSet(usdc, config.Stables))}
		if chainlink != nil {
			underlying = append(underlying, chainlink)
		}
		underlying = append(underlying, routers...)
		oracles = append(oracles, NewCurveRouter(config.CurveCalculations, config.CurveRegistries, usdcDecimals, underlying, caller))
	}

	oracles = append(oracles, routers...)

	if config.SushiCalculations != nil {
		oracles = append(oracles, NewSushiCalculations(*config.SushiCalculations, usdcDecimals, caller))
	}
	if config.YearnLens != nil {
		oracles = append(oracles, NewYearnLens(*config.YearnLens, usdcDecimals, caller))
	}
	if config.AaveOracle != nil {
		oracles = append(oracles, NewAaveOracle(*config.AaveOracle, caller))
	}

	return &Resolver{stables: stableSet(usdc, config.Stables), oracles: oracles}, nil
}

func stableSet(usdc common.Address, stables []string) map[common.Address]bool {
	out := map[common.Address]bool{usdc: true}
	for _, stable := range stables {
		out[common.HexToAddress(stable)] = true
	}
	return out
}

// hardcodedStables prices the configured stablecoins at exactly one dollar.
type hardcodedStables map[common.Address]bool

func (hardcodedStables) Name() string { return "Hardcoded" }

func (s hardcodedStables) Price(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	if s[token] {
		return NewPriceFromDecimal(decimal.NewFromInt(1), 0, "Hardcoded"), nil
	}
	return Empty(), nil
}

func (r *Resolver) Oracles() []Oracle {
	return r.oracles
}

// GetUsdPricePerToken returns the USD price of one whole token at block, nil
// meaning latest. An empty price with a nil error means no source could
// price the token.
func (r *Resolver) GetUsdPricePerToken(ctx context.Context, token common.Address, block *big.Int) (CustomPrice, error) {
	if token == (common.Address{}) {
		return Empty(), nil
	}
	if r.stables[token] {
		return hardcodedStables(r.stables).Price(ctx, token, block)
	}

	for _, oracle := range r.oracles {
		price, err := oracle.Price(ctx, token, block)
		if err != nil {
			metrics.OracleLookups.WithLabelValues(oracle.Name(), "error").Inc()
			return Empty(), fmt.Errorf("pricing %s with %s: %w", token.Hex(), oracle.Name(), err)
		}
		if !price.Reverted() {
			metrics.OracleLookups.WithLabelValues(oracle.Name(), "hit").Inc()
			return price, nil
		}

		metrics.OracleLookups.WithLabelValues(oracle.Name(), "reverted").Inc()
		zlog.Debug("oracle had no price, falling back", zap.String("oracle", oracle.Name()), zap.Stringer("token", token))
	}

	zlog.Warn("no oracle could price token", zap.Stringer("token", token), zap.Stringer("block", block))
	return Empty(), nil
}

// GetUsdPrice values amount, already scaled to whole tokens, in USD. Unpriced
// tokens are worth zero.
func (r *Resolver) GetUsdPrice(ctx context.Context, token common.Address, amount decimal.Decimal, block *big.Int) (decimal.Decimal, error) {
	price, err := r.GetUsdPricePerToken(ctx, token, block)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(price.USDPrice()), nil
}
