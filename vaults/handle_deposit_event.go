package vaults

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/streamingfast/defi-subgraphs/entity"
	"go.uber.org/zap"
)

func (s *Subgraph) HandleDeposit(ctx context.Context, log types.Log, ev *DepositEvent) error {
	deposit := entity.NewDeposit(eventID(log))
	if err := s.loader.Load(ctx, deposit); err != nil {
		return fmt.Errorf("loading deposit %s: %w", deposit.ID, err)
	}
	if deposit.Exists() {
		return nil
	}

	vault, err := s.getOrCreateVault(ctx, log.Address)
	if err != nil {
		return err
	}
	inputToken, err := s.getOrCreateToken(ctx, common.HexToAddress(vault.InputToken))
	if err != nil {
		return err
	}

	if err := s.refreshVault(ctx, vault, inputToken, ev.Assets, ev.Shares); err != nil {
		return fmt.Errorf("refreshing vault %s: %w", vault.ID, err)
	}
	vault.CumulativeDepositCount++

	from := ev.Sender
	if from == (common.Address{}) {
		from = ev.Owner
	}

	amount := entity.ConvertTokenToDecimal(ev.Assets, scaleDecimals(inputToken))
	amountUSD := amount.Mul(inputToken.LastPriceUSD)

	deposit.Hash = log.TxHash.Hex()
	deposit.LogIndex = log.Index
	deposit.Protocol = vault.Protocol
	deposit.To = vault.ID
	deposit.From = addressID(from)
	deposit.BlockNumber = s.block.Number
	deposit.Timestamp = s.timestamp()
	deposit.Asset = inputToken.ID
	deposit.Amount = amount
	deposit.AmountUSD = amountUSD
	deposit.Vault = vault.ID

	zlog.Debug("deposit",
		zap.String("vault", vault.ID),
		zap.String("owner", addressID(ev.Owner)),
		zap.Stringer("amount", amount),
		zap.Stringer("amount_usd", amountUSD),
		zap.Uint64("block_num", s.block.Number),
	)

	if err := s.loader.Save(deposit); err != nil {
		return err
	}
	if err := s.loader.Save(vault); err != nil {
		return err
	}
	return s.afterTransaction(ctx, vault, addressID(ev.Owner), usageDeposit, amount, amountUSD)
}

// afterTransaction runs the bookkeeping shared by deposits and withdraws.
func (s *Subgraph) afterTransaction(ctx context.Context, vault *entity.Vault, account string, kind usageKind, amount, amountUSD decimal.Decimal) error {
	statKind := "deposit"
	if kind == usageWithdraw {
		statKind = "withdraw"
	}
	if err := s.updateStat(ctx, vault.ID, statKind, amount, amountUSD); err != nil {
		return err
	}
	if err := s.updateUsageMetrics(ctx, account, kind); err != nil {
		return err
	}
	if err := s.updateFinancials(ctx, noRevenue); err != nil {
		return err
	}
	return s.updateVaultSnapshots(ctx, vault, noRevenue)
}

func negate(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Neg(v)
}
