package vaults

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"go.uber.org/zap"
)

// HandleRewardAdded refreshes the daily emissions of the vault staked in the
// rewarder that emitted the log.
func (s *Subgraph) HandleRewardAdded(ctx context.Context, log types.Log, ev *RewardAddedEvent) error {
	vaultID, found := s.rewarders[addressID(log.Address)]
	if !found {
		return nil
	}
	vault, err := s.getOrCreateVault(ctx, common.HexToAddress(vaultID))
	if err != nil {
		return err
	}

	rewarder := chain.NewContract(log.Address, RewarderABI, s.caller)
	values, err := rewarder.Call(ctx, s.blockNumber(), "rewardsToken")
	if err != nil {
		if chain.IsReverted(err) {
			zlog.Warn("rewarder has no rewards token", zap.Stringer("rewarder", log.Address))
			return nil
		}
		return err
	}
	rewardToken, err := s.getOrCreateToken(ctx, values[0].(common.Address))
	if err != nil {
		return err
	}

	rate, err := s.readUint(ctx, rewarder, "rewardRate")
	if err != nil {
		return err
	}
	if rate == nil {
		zlog.Debug("reward rate reverted", zap.Stringer("rewarder", log.Address))
		return nil
	}

	price, err := s.updateTokenPrice(ctx, rewardToken)
	if err != nil {
		return err
	}

	perDay := entity.ConvertTokenToDecimal(rate, scaleDecimals(rewardToken)).Mul(decimal.NewFromInt(entity.SecondsPerDay))
	vault.RewardTokens = []string{rewardToken.ID}
	vault.RewardTokenEmissionsAmount = []decimal.Decimal{perDay}
	vault.RewardTokenEmissionsUSD = []decimal.Decimal{perDay.Mul(price)}

	zlog.Debug("reward added",
		zap.String("vault", vault.ID),
		zap.String("reward_token", rewardToken.ID),
		zap.Stringer("reward", entity.RawAmount(ev.Reward)),
		zap.Stringer("daily_emissions", perDay),
	)

	if err := s.loader.Save(vault); err != nil {
		return fmt.Errorf("saving vault %s: %w", vault.ID, err)
	}
	return s.updateVaultSnapshots(ctx, vault, noRevenue)
}
