package vaults

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"go.uber.org/zap"
)

const maxBps = 10000

func (s *Subgraph) getOrCreateProtocol(ctx context.Context) (*entity.YieldAggregator, error) {
	protocol := entity.NewYieldAggregator(s.protocolID())
	if err := s.loader.Load(ctx, protocol); err != nil {
		return nil, fmt.Errorf("loading protocol: %w", err)
	}
	if protocol.Exists() {
		return protocol, nil
	}

	protocol.Name = s.config.Name
	protocol.Slug = s.config.Slug
	protocol.SchemaVersion = s.config.SchemaVersion
	protocol.Network = s.config.Network
	protocol.Vaults = []string{}
	return protocol, nil
}

// HandleNewVault is run when the data source of a vault starts.
func (s *Subgraph) HandleNewVault(ctx context.Context, address common.Address) error {
	_, err := s.getOrCreateVault(ctx, address)
	return err
}

// getOrCreateVault loads the vault, initializing it from contract reads on
// first sight.
func (s *Subgraph) getOrCreateVault(ctx context.Context, address common.Address) (*entity.Vault, error) {
	vault := entity.NewVault(addressID(address))
	if err := s.loader.Load(ctx, vault); err != nil {
		return nil, fmt.Errorf("loading vault %s: %w", vault.ID, err)
	}
	if vault.Exists() && vault.IsInitialized {
		return vault, nil
	}

	contract := chain.NewContract(address, VaultABI, s.caller)

	inputToken, err := s.fetchUnderlying(ctx, contract)
	if err != nil {
		return nil, err
	}
	if _, err := s.getOrCreateToken(ctx, inputToken); err != nil {
		return nil, err
	}
	shareToken, err := s.getOrCreateToken(ctx, address)
	if err != nil {
		return nil, err
	}

	vault.Name = shareToken.Name
	vault.Symbol = shareToken.Symbol
	if vault.PerformanceFeeBps, err = s.fetchPerformanceFee(ctx, contract); err != nil {
		return nil, err
	}

	vault.Protocol = s.protocolID()
	vault.InputToken = addressID(inputToken)
	vault.OutputToken = vault.ID
	vault.RewardTokens = []string{}
	vault.RewardTokenEmissionsAmount = []decimal.Decimal{}
	vault.RewardTokenEmissionsUSD = []decimal.Decimal{}
	if source, found := s.vaults[vault.ID]; found && source.Rewarder != "" {
		vault.Rewarder = entity.NormalizeID(source.Rewarder)
	}
	vault.PricePerShare = entity.One
	vault.CreatedBlockNumber = s.block.Number
	vault.CreatedTimestamp = s.timestamp()
	vault.IsInitialized = true
	vault.Sanitize()

	protocol, err := s.getOrCreateProtocol(ctx)
	if err != nil {
		return nil, err
	}
	protocol.TotalPoolCount++
	protocol.Vaults = append(append([]string{}, protocol.Vaults...), vault.ID)
	if err := s.loader.Save(protocol); err != nil {
		return nil, err
	}
	if err := s.loader.Save(vault); err != nil {
		return nil, err
	}

	zlog.Info("vault created",
		zap.String("vault", vault.ID),
		zap.String("symbol", vault.Symbol),
		zap.String("input_token", vault.InputToken),
		zap.Int64("performance_fee_bps", vault.PerformanceFeeBps),
		zap.Uint64("block_num", s.block.Number),
	)
	return vault, nil
}

// fetchUnderlying reads token() on v2 vaults, asset() on ERC-4626 ones.
func (s *Subgraph) fetchUnderlying(ctx context.Context, contract *chain.Contract) (common.Address, error) {
	for _, method := range []string{"token", "asset"} {
		values, err := contract.Call(ctx, s.blockNumber(), method)
		if err == nil {
			return values[0].(common.Address), nil
		}
		if !chain.IsReverted(err) {
			return common.Address{}, err
		}
	}

	zlog.Warn("vault exposes no underlying token", zap.Stringer("vault", contract.Address))
	return common.Address{}, nil
}

func (s *Subgraph) fetchPerformanceFee(ctx context.Context, contract *chain.Contract) (int64, error) {
	values, err := contract.Call(ctx, s.blockNumber(), "performanceFee")
	if err != nil {
		if chain.IsReverted(err) {
			return s.config.DefaultPerformanceFeeBps, nil
		}
		return 0, err
	}
	return values[0].(*big.Int).Int64(), nil
}

// refreshVault re-reads balance, supply and share price after a deposit or
// withdraw, falling back to applying the event deltas when the reads revert.
// It then recomputes the vault TVL and share token price.
func (s *Subgraph) refreshVault(ctx context.Context, vault *entity.Vault, inputToken *entity.Token, deltaAssets, deltaShares *big.Int) error {
	contract := chain.NewContract(common.HexToAddress(vault.ID), VaultABI, s.caller)
	decimals := scaleDecimals(inputToken)

	balance, err := s.readUint(ctx, contract, "totalAssets")
	if err != nil {
		return err
	}
	if balance != nil {
		vault.InputTokenBalance = entity.RawAmount(balance)
	} else {
		vault.InputTokenBalance = clampZero(vault.InputTokenBalance.Add(entity.RawAmount(deltaAssets)))
	}

	supply, err := s.readUint(ctx, contract, "totalSupply")
	if err != nil {
		return err
	}
	if supply != nil {
		vault.OutputTokenSupply = entity.RawAmount(supply)
	} else {
		vault.OutputTokenSupply = clampZero(vault.OutputTokenSupply.Add(entity.RawAmount(deltaShares)))
	}

	pricePerShare, err := s.readPricePerShare(ctx, contract, decimals)
	if err != nil {
		return err
	}
	switch {
	case pricePerShare != nil:
		vault.PricePerShare = entity.ConvertTokenToDecimal(pricePerShare, decimals)
	case vault.OutputTokenSupply.IsPositive():
		vault.PricePerShare = vault.InputTokenBalance.Div(vault.OutputTokenSupply)
	}

	price, err := s.updateTokenPrice(ctx, inputToken)
	if err != nil {
		return err
	}
	vault.TotalValueLockedUSD = vault.InputTokenBalance.Shift(-decimals).Mul(price)
	vault.OutputTokenPriceUSD = vault.PricePerShare.Mul(price)
	return nil
}

// readUint returns nil when the call reverts.
func (s *Subgraph) readUint(ctx context.Context, contract *chain.Contract, method string, args ...interface{}) (*big.Int, error) {
	values, err := contract.Call(ctx, s.blockNumber(), method, args...)
	if err != nil {
		if chain.IsReverted(err) {
			return nil, nil
		}
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func (s *Subgraph) readPricePerShare(ctx context.Context, contract *chain.Contract, decimals int32) (*big.Int, error) {
	pricePerShare, err := s.readUint(ctx, contract, "pricePerShare")
	if err != nil || pricePerShare != nil {
		return pricePerShare, err
	}
	oneShare := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return s.readUint(ctx, contract, "convertToAssets", oneShare)
}

// updateProtocolTVL sums the TVL of every vault of the protocol.
func (s *Subgraph) updateProtocolTVL(ctx context.Context) (*entity.YieldAggregator, error) {
	protocol, err := s.getOrCreateProtocol(ctx)
	if err != nil {
		return nil, err
	}

	tvl := decimal.Zero
	for _, id := range protocol.Vaults {
		vault := entity.NewVault(id)
		if err := s.loader.Load(ctx, vault); err != nil {
			return nil, fmt.Errorf("loading vault %s: %w", id, err)
		}
		tvl = tvl.Add(vault.TotalValueLockedUSD)
	}
	protocol.TotalValueLockedUSD = tvl

	if err := s.loader.Save(protocol); err != nil {
		return nil, err
	}
	return protocol, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
