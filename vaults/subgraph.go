// Package vaults maps vault events to the yield aggregator entities.
package vaults

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/loader"
	"github.com/streamingfast/defi-subgraphs/metrics"
	"github.com/streamingfast/defi-subgraphs/networks"
	"github.com/streamingfast/defi-subgraphs/pricing"
	"github.com/streamingfast/defi-subgraphs/tokenlist"
	"github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

type PriceResolver interface {
	GetUsdPricePerToken(ctx context.Context, token common.Address, block *big.Int) (pricing.CustomPrice, error)
}

type Subgraph struct {
	loader   *loader.Loader
	resolver PriceResolver
	caller   chain.Caller
	config   *networks.Config
	tokens   *tokenlist.List

	// vault address by rewarder address
	rewarders map[string]string
	vaults    map[string]networks.VaultSource
	started   map[string]bool

	block chain.Block
}

func New(config *networks.Config, ldr *loader.Loader, resolver PriceResolver, caller chain.Caller, tokens *tokenlist.List) *Subgraph {
	s := &Subgraph{
		loader:    ldr,
		resolver:  resolver,
		caller:    caller,
		config:    config,
		tokens:    tokens,
		rewarders: map[string]string{},
		vaults:    map[string]networks.VaultSource{},
		started:   map[string]bool{},
	}

	for _, vault := range config.Vaults {
		id := entity.NormalizeID(vault.Address)
		s.vaults[id] = vault
		if vault.Rewarder != "" {
			s.rewarders[entity.NormalizeID(vault.Rewarder)] = id
		}
	}
	return s
}

// Addresses lists the contracts whose logs feed the handlers.
func (s *Subgraph) Addresses() (out []common.Address) {
	for _, vault := range s.config.Vaults {
		out = append(out, common.HexToAddress(vault.Address))
		if vault.Rewarder != "" {
			out = append(out, common.HexToAddress(vault.Rewarder))
		}
	}
	return
}

func (s *Subgraph) protocolID() string {
	return s.config.Protocol
}

// ProcessBlock starts the vaults whose data source begins at or before
// block, runs every log through HandleLog and flushes the block along with its
// cursor.
func (s *Subgraph) ProcessBlock(ctx context.Context, block chain.Block, logs []types.Log) error {
	s.block = block

	for _, vault := range s.config.Vaults {
		id := entity.NormalizeID(vault.Address)
		if s.started[id] || vault.StartBlock > block.Number {
			continue
		}
		if err := s.HandleNewVault(ctx, common.HexToAddress(vault.Address)); err != nil {
			return fmt.Errorf("starting vault %s: %w", id, err)
		}
		s.started[id] = true
	}

	for _, log := range logs {
		if err := s.HandleLog(ctx, log); err != nil {
			return fmt.Errorf("block %d: %w", block.Number, err)
		}
	}

	cursor := entity.NewCursor("")
	cursor.BlockNumber = block.Number
	cursor.BlockHash = block.Hash.Pretty()
	cursor.Timestamp = block.Timestamp.Unix()
	if err := s.loader.Flush(ctx, cursor); err != nil {
		return err
	}

	metrics.HeadBlock.Set(float64(block.Number))
	return nil
}

// HandleLog decodes a raw log by its first topic and dispatches it. Logs from
// unknown emitters or with unknown topics are ignored.
func (s *Subgraph) HandleLog(ctx context.Context, log types.Log) error {
	if len(log.Topics) == 0 {
		return nil
	}

	emitter := entity.NormalizeID(log.Address.Hex())
	_, isVault := s.vaults[emitter]
	_, isRewarder := s.rewarders[emitter]

	var event string
	var err error
	switch topic := log.Topics[0]; {
	case isVault && (topic == DepositV2Topic || topic == DepositTopic):
		event = "deposit"
		var ev *DepositEvent
		if ev, err = DecodeDeposit(log); err == nil {
			err = s.HandleDeposit(ctx, log, ev)
		}
	case isVault && (topic == WithdrawV2Topic || topic == WithdrawTopic):
		event = "withdraw"
		var ev *WithdrawEvent
		if ev, err = DecodeWithdraw(log); err == nil {
			err = s.HandleWithdraw(ctx, log, ev)
		}
	case isVault && topic == TransferTopic:
		event = "transfer"
		var ev *TransferEvent
		if ev, err = DecodeTransfer(log); err == nil {
			err = s.HandleTransfer(ctx, log, ev)
		}
	case isVault && (topic == StrategyReportedV2Topic || topic == StrategyReportedTopic):
		event = "strategy_reported"
		var ev *StrategyReportedEvent
		if ev, err = DecodeStrategyReported(log); err == nil {
			err = s.HandleStrategyReported(ctx, log, ev)
		}
	case isRewarder && topic == RewardAddedTopic:
		event = "reward_added"
		var ev *RewardAddedEvent
		if ev, err = DecodeRewardAdded(log); err == nil {
			err = s.HandleRewardAdded(ctx, log, ev)
		}
	default:
		zlog.Debug("ignoring log", zap.Stringer("address", log.Address), zap.Stringer("topic", log.Topics[0]))
		return nil
	}

	if err != nil {
		metrics.HandlerErrors.WithLabelValues(event).Inc()
		return fmt.Errorf("handling %s log %s-%d: %w", event, log.TxHash.Hex(), log.Index, err)
	}
	metrics.EventsHandled.WithLabelValues(event).Inc()
	return nil
}

func (s *Subgraph) blockNumber() *big.Int {
	return s.block.BigNumber()
}

func (s *Subgraph) timestamp() int64 {
	return s.block.Timestamp.Unix()
}

func eventID(log types.Log) string {
	return entity.EventID(eth.Hash(log.TxHash.Bytes()), log.Index)
}

func addressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
