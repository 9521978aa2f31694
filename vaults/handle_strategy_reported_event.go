package vaults

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/entity"
	"go.uber.org/zap"
)

// HandleStrategyReported books the gain of a harvest as revenue. v3 reports
// carry the fees charged, v2 ones are split with the vault performance fee.
func (s *Subgraph) HandleStrategyReported(ctx context.Context, log types.Log, ev *StrategyReportedEvent) error {
	report := entity.NewStrategyReport(eventID(log))
	if err := s.loader.Load(ctx, report); err != nil {
		return fmt.Errorf("loading strategy report %s: %w", report.ID, err)
	}
	if report.Exists() {
		return nil
	}

	vault, err := s.getOrCreateVault(ctx, log.Address)
	if err != nil {
		return err
	}
	if ev.Gain == nil || ev.Gain.Sign() <= 0 {
		return nil
	}

	inputToken, err := s.getOrCreateToken(ctx, common.HexToAddress(vault.InputToken))
	if err != nil {
		return err
	}
	price, err := s.updateTokenPrice(ctx, inputToken)
	if err != nil {
		return err
	}

	decimals := scaleDecimals(inputToken)
	gainUSD := entity.ConvertTokenToDecimal(ev.Gain, decimals).Mul(price)

	var earned revenue
	if ev.TotalFees != nil {
		earned.protocolSide = decimal.Min(entity.ConvertTokenToDecimal(ev.TotalFees, decimals).Mul(price), gainUSD)
	} else {
		earned.protocolSide = gainUSD.Mul(decimal.NewFromInt(vault.PerformanceFeeBps)).Div(decimal.NewFromInt(maxBps))
	}
	earned.supplySide = gainUSD.Sub(earned.protocolSide)

	report.Hash = log.TxHash.Hex()
	report.LogIndex = log.Index
	report.Vault = vault.ID
	report.Strategy = addressID(ev.Strategy)
	report.BlockNumber = s.block.Number
	report.Timestamp = s.timestamp()
	report.GainUSD = gainUSD
	report.ProtocolSideRevenueUSD = earned.protocolSide
	if err := s.loader.Save(report); err != nil {
		return err
	}

	vault.CumulativeSupplySideRevenueUSD = vault.CumulativeSupplySideRevenueUSD.Add(earned.supplySide)
	vault.CumulativeProtocolSideRevenueUSD = vault.CumulativeProtocolSideRevenueUSD.Add(earned.protocolSide)
	vault.CumulativeTotalRevenueUSD = vault.CumulativeTotalRevenueUSD.Add(earned.total())
	if err := s.loader.Save(vault); err != nil {
		return err
	}

	protocol, err := s.getOrCreateProtocol(ctx)
	if err != nil {
		return err
	}
	protocol.CumulativeSupplySideRevenueUSD = protocol.CumulativeSupplySideRevenueUSD.Add(earned.supplySide)
	protocol.CumulativeProtocolSideRevenueUSD = protocol.CumulativeProtocolSideRevenueUSD.Add(earned.protocolSide)
	protocol.CumulativeTotalRevenueUSD = protocol.CumulativeTotalRevenueUSD.Add(earned.total())
	if err := s.loader.Save(protocol); err != nil {
		return fmt.Errorf("saving protocol: %w", err)
	}

	zlog.Debug("strategy reported",
		zap.String("vault", vault.ID),
		zap.Stringer("strategy", ev.Strategy),
		zap.Stringer("gain_usd", gainUSD),
		zap.Stringer("protocol_side_usd", earned.protocolSide),
		zap.Uint64("block_num", s.block.Number),
	)

	if err := s.updateFinancials(ctx, earned); err != nil {
		return err
	}
	return s.updateVaultSnapshots(ctx, vault, earned)
}
