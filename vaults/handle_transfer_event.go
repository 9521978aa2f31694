package vaults

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// HandleTransfer registers both sides of a share transfer as accounts. Mints
// and burns are accounted by the deposit and withdraw handlers.
func (s *Subgraph) HandleTransfer(ctx context.Context, log types.Log, ev *TransferEvent) error {
	if ev.From == (common.Address{}) || ev.To == (common.Address{}) {
		return nil
	}
	if _, err := s.getOrCreateVault(ctx, log.Address); err != nil {
		return err
	}

	for _, account := range []common.Address{ev.From, ev.To} {
		if _, err := s.getOrCreateAccount(ctx, addressID(account)); err != nil {
			return err
		}
	}
	return nil
}
