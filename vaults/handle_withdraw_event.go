package vaults

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/streamingfast/defi-subgraphs/entity"
	"go.uber.org/zap"
)

func (s *Subgraph) HandleWithdraw(ctx context.Context, log types.Log, ev *WithdrawEvent) error {
	withdraw := entity.NewWithdraw(eventID(log))
	if err := s.loader.Load(ctx, withdraw); err != nil {
		return fmt.Errorf("loading withdraw %s: %w", withdraw.ID, err)
	}
	if withdraw.Exists() {
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

	if err := s.refreshVault(ctx, vault, inputToken, negate(ev.Assets), negate(ev.Shares)); err != nil {
		return fmt.Errorf("refreshing vault %s: %w", vault.ID, err)
	}
	vault.CumulativeWithdrawCount++

	amount := entity.ConvertTokenToDecimal(ev.Assets, scaleDecimals(inputToken))
	amountUSD := amount.Mul(inputToken.LastPriceUSD)

	withdraw.Hash = log.TxHash.Hex()
	withdraw.LogIndex = log.Index
	withdraw.Protocol = vault.Protocol
	withdraw.To = addressID(ev.Receiver)
	withdraw.From = vault.ID
	withdraw.BlockNumber = s.block.Number
	withdraw.Timestamp = s.timestamp()
	withdraw.Asset = inputToken.ID
	withdraw.Amount = amount
	withdraw.AmountUSD = amountUSD
	withdraw.Vault = vault.ID

	zlog.Debug("withdraw",
		zap.String("vault", vault.ID),
		zap.String("owner", addressID(ev.Owner)),
		zap.Stringer("amount", amount),
		zap.Stringer("amount_usd", amountUSD),
		zap.Uint64("block_num", s.block.Number),
	)

	if err := s.loader.Save(withdraw); err != nil {
		return err
	}
	if err := s.loader.Save(vault); err != nil {
		return err
	}
	return s.afterTransaction(ctx, vault, addressID(ev.Owner), usageWithdraw, amount, amountUSD)
}
