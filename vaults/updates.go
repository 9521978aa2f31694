package vaults

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/stats"
)

type usageKind int

const (
	usageDeposit usageKind = iota
	usageWithdraw
	usageTransfer
)

// revenue is an amount of fees earned in USD, split between depositors and
// the protocol treasury.
type revenue struct {
	supplySide   decimal.Decimal
	protocolSide decimal.Decimal
}

func (r revenue) total() decimal.Decimal {
	return r.supplySide.Add(r.protocolSide)
}

var noRevenue = revenue{supplySide: decimal.Zero, protocolSide: decimal.Zero}

// getOrCreateAccount returns true when the account was first seen.
func (s *Subgraph) getOrCreateAccount(ctx context.Context, id string) (bool, error) {
	account := entity.NewAccount(id)
	if err := s.loader.Load(ctx, account); err != nil {
		return false, fmt.Errorf("loading account %s: %w", id, err)
	}
	if account.Exists() {
		return false, nil
	}

	account.FirstSeenBlockNumber = s.block.Number
	if err := s.loader.Save(account); err != nil {
		return false, err
	}

	protocol, err := s.getOrCreateProtocol(ctx)
	if err != nil {
		return false, err
	}
	protocol.CumulativeUniqueUsers++
	return true, s.loader.Save(protocol)
}

// markActive saves the active account marker, returning true when the
// account was not yet active in the period. The marker of the period before
// is never read again and gets dropped.
func (s *Subgraph) markActive(ctx context.Context, id, previousID string) (bool, error) {
	marker := entity.NewActiveAccount(id)
	if err := s.loader.Load(ctx, marker); err != nil {
		return false, fmt.Errorf("loading active account %s: %w", id, err)
	}
	if marker.Exists() {
		return false, nil
	}
	s.loader.Remove(marker.TableName(), previousID)
	return true, s.loader.Save(marker)
}

func (s *Subgraph) updateUsageMetrics(ctx context.Context, account string, kind usageKind) error {
	if _, err := s.getOrCreateAccount(ctx, account); err != nil {
		return err
	}

	protocol, err := s.getOrCreateProtocol(ctx)
	if err != nil {
		return err
	}

	timestamp := s.timestamp()
	dayID := entity.DayID(timestamp)
	hourID := entity.HourID(timestamp)

	daily := entity.NewUsageMetricsDailySnapshot(strconv.FormatInt(dayID, 10))
	if err := s.loader.Load(ctx, daily); err != nil {
		return fmt.Errorf("loading usage daily snapshot %s: %w", daily.ID, err)
	}
	daily.Protocol = protocol.ID
	daily.BlockNumber = s.block.Number
	daily.Timestamp = timestamp
	daily.CumulativeUniqueUsers = protocol.CumulativeUniqueUsers
	daily.TotalPoolCount = protocol.TotalPoolCount

	hourly := entity.NewUsageMetricsHourlySnapshot(strconv.FormatInt(hourID, 10))
	if err := s.loader.Load(ctx, hourly); err != nil {
		return fmt.Errorf("loading usage hourly snapshot %s: %w", hourly.ID, err)
	}
	hourly.Protocol = protocol.ID
	hourly.BlockNumber = s.block.Number
	hourly.Timestamp = timestamp
	hourly.CumulativeUniqueUsers = protocol.CumulativeUniqueUsers

	daily.DailyTransactionCount++
	hourly.HourlyTransactionCount++
	switch kind {
	case usageDeposit:
		daily.DailyDepositCount++
		hourly.HourlyDepositCount++
	case usageWithdraw:
		daily.DailyWithdrawCount++
		hourly.HourlyWithdrawCount++
	}

	newDaily, err := s.markActive(ctx, entity.DailyActiveAccountID(account, dayID), entity.DailyActiveAccountID(account, dayID-1))
	if err != nil {
		return err
	}
	if newDaily {
		daily.DailyActiveUsers++
	}

	newHourly, err := s.markActive(ctx, entity.HourlyActiveAccountID(account, hourID), entity.HourlyActiveAccountID(account, hourID-1))
	if err != nil {
		return err
	}
	if newHourly {
		hourly.HourlyActiveUsers++
	}

	if err := s.loader.Save(daily); err != nil {
		return err
	}
	return s.loader.Save(hourly)
}

func (s *Subgraph) updateFinancials(ctx context.Context, earned revenue) error {
	protocol, err := s.updateProtocolTVL(ctx)
	if err != nil {
		return err
	}

	snapshot := entity.NewFinancialsDailySnapshot(strconv.FormatInt(entity.DayID(s.timestamp()), 10))
	if err := s.loader.Load(ctx, snapshot); err != nil {
		return fmt.Errorf("loading financials snapshot %s: %w", snapshot.ID, err)
	}

	snapshot.Protocol = protocol.ID
	snapshot.BlockNumber = s.block.Number
	snapshot.Timestamp = s.timestamp()
	snapshot.TotalValueLockedUSD = protocol.TotalValueLockedUSD
	snapshot.DailySupplySideRevenueUSD = snapshot.DailySupplySideRevenueUSD.Add(earned.supplySide)
	snapshot.DailyProtocolSideRevenueUSD = snapshot.DailyProtocolSideRevenueUSD.Add(earned.protocolSide)
	snapshot.DailyTotalRevenueUSD = snapshot.DailyTotalRevenueUSD.Add(earned.total())
	snapshot.CumulativeSupplySideRevenueUSD = protocol.CumulativeSupplySideRevenueUSD
	snapshot.CumulativeProtocolSideRevenueUSD = protocol.CumulativeProtocolSideRevenueUSD
	snapshot.CumulativeTotalRevenueUSD = protocol.CumulativeTotalRevenueUSD

	return s.loader.Save(snapshot)
}

func (s *Subgraph) updateVaultSnapshots(ctx context.Context, vault *entity.Vault, earned revenue) error {
	timestamp := s.timestamp()

	daily := entity.NewVaultDailySnapshot(fmt.Sprintf("%s-%d", vault.ID, entity.DayID(timestamp)))
	if err := s.loader.Load(ctx, daily); err != nil {
		return fmt.Errorf("loading vault daily snapshot %s: %w", daily.ID, err)
	}
	daily.Protocol = vault.Protocol
	daily.Vault = vault.ID
	daily.BlockNumber = s.block.Number
	daily.Timestamp = timestamp
	daily.TotalValueLockedUSD = vault.TotalValueLockedUSD
	daily.InputTokenBalance = vault.InputTokenBalance
	daily.OutputTokenSupply = vault.OutputTokenSupply
	daily.OutputTokenPriceUSD = vault.OutputTokenPriceUSD
	daily.PricePerShare = vault.PricePerShare
	daily.RewardTokenEmissionsAmount = vault.RewardTokenEmissionsAmount
	daily.RewardTokenEmissionsUSD = vault.RewardTokenEmissionsUSD
	daily.DailySupplySideRevenueUSD = daily.DailySupplySideRevenueUSD.Add(earned.supplySide)
	daily.DailyProtocolSideRevenueUSD = daily.DailyProtocolSideRevenueUSD.Add(earned.protocolSide)
	daily.DailyTotalRevenueUSD = daily.DailyTotalRevenueUSD.Add(earned.total())
	daily.CumulativeSupplySideRevenueUSD = vault.CumulativeSupplySideRevenueUSD
	daily.CumulativeProtocolSideRevenueUSD = vault.CumulativeProtocolSideRevenueUSD
	daily.CumulativeTotalRevenueUSD = vault.CumulativeTotalRevenueUSD
	if err := s.loader.Save(daily); err != nil {
		return err
	}

	hourly := entity.NewVaultHourlySnapshot(fmt.Sprintf("%s-%d", vault.ID, entity.HourID(timestamp)))
	if err := s.loader.Load(ctx, hourly); err != nil {
		return fmt.Errorf("loading vault hourly snapshot %s: %w", hourly.ID, err)
	}
	hourly.Protocol = vault.Protocol
	hourly.Vault = vault.ID
	hourly.BlockNumber = s.block.Number
	hourly.Timestamp = timestamp
	hourly.TotalValueLockedUSD = vault.TotalValueLockedUSD
	hourly.InputTokenBalance = vault.InputTokenBalance
	hourly.OutputTokenSupply = vault.OutputTokenSupply
	hourly.OutputTokenPriceUSD = vault.OutputTokenPriceUSD
	hourly.PricePerShare = vault.PricePerShare
	hourly.HourlySupplySideRevenueUSD = hourly.HourlySupplySideRevenueUSD.Add(earned.supplySide)
	hourly.HourlyProtocolSideRevenueUSD = hourly.HourlyProtocolSideRevenueUSD.Add(earned.protocolSide)
	hourly.HourlyTotalRevenueUSD = hourly.HourlyTotalRevenueUSD.Add(earned.total())
	return s.loader.Save(hourly)
}

// updateStat folds one observation into the per vault stat of kind
// ("deposit" or "withdraw").
func (s *Subgraph) updateStat(ctx context.Context, vaultID, kind string, amount, amountUSD decimal.Decimal) error {
	stat := entity.NewStat(vaultID + "-" + kind)
	if err := s.loader.Load(ctx, stat); err != nil {
		return fmt.Errorf("loading stat %s: %w", stat.ID, err)
	}
	if !stat.Exists() {
		stats.Init(stat)
	}
	stats.Update(stat, amount, amountUSD)
	return s.loader.Save(stat)
}
