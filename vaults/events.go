package vaults

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	DepositV2Topic          = vaultV2EventsABI.Events["Deposit"].ID
	WithdrawV2Topic         = vaultV2EventsABI.Events["Withdraw"].ID
	TransferTopic           = vaultV2EventsABI.Events["Transfer"].ID
	StrategyReportedV2Topic = vaultV2EventsABI.Events["StrategyReported"].ID

	DepositTopic          = erc4626EventsABI.Events["Deposit"].ID
	WithdrawTopic         = erc4626EventsABI.Events["Withdraw"].ID
	StrategyReportedTopic = erc4626EventsABI.Events["StrategyReported"].ID

	RewardAddedTopic = RewarderABI.Events["RewardAdded"].ID
)

// Topics lists every event signature the vault handlers consume.
func Topics() []common.Hash {
	return []common.Hash{
		DepositV2Topic,
		WithdrawV2Topic,
		TransferTopic,
		StrategyReportedV2Topic,
		DepositTopic,
		WithdrawTopic,
		StrategyReportedTopic,
		RewardAddedTopic,
	}
}

// DepositEvent normalizes the Yearn v2 and ERC-4626 deposit shapes. Sender is
// the zero address for v2 vaults, which do not emit it.
type DepositEvent struct {
	Sender common.Address
	Owner  common.Address
	Assets *big.Int
	Shares *big.Int
}

type WithdrawEvent struct {
	Sender   common.Address
	Receiver common.Address
	Owner    common.Address
	Assets   *big.Int
	Shares   *big.Int
}

type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// StrategyReportedEvent carries the harvest of one strategy. TotalFees is only
// reported by v3 vaults, nil otherwise.
type StrategyReportedEvent struct {
	Strategy  common.Address
	Gain      *big.Int
	Loss      *big.Int
	TotalFees *big.Int
}

type RewardAddedEvent struct {
	Reward *big.Int
}

func DecodeDeposit(log types.Log) (*DepositEvent, error) {
	switch log.Topics[0] {
	case DepositV2Topic:
		values, err := unpack(vaultV2EventsABI, "Deposit", log, 2)
		if err != nil {
			return nil, err
		}
		return &DepositEvent{
			Owner:  topicAddress(log.Topics[1]),
			Shares: values[0].(*big.Int),
			Assets: values[1].(*big.Int),
		}, nil
	case DepositTopic:
		values, err := unpack(erc4626EventsABI, "Deposit", log, 3)
		if err != nil {
			return nil, err
		}
		return &DepositEvent{
			Sender: topicAddress(log.Topics[1]),
			Owner:  topicAddress(log.Topics[2]),
			Assets: values[0].(*big.Int),
			Shares: values[1].(*big.Int),
		}, nil
	}
	return nil, fmt.Errorf("log topic %s is not a deposit", log.Topics[0].Hex())
}

func DecodeWithdraw(log types.Log) (*WithdrawEvent, error) {
	switch log.Topics[0] {
	case WithdrawV2Topic:
		values, err := unpack(vaultV2EventsABI, "Withdraw", log, 2)
		if err != nil {
			return nil, err
		}
		recipient := topicAddress(log.Topics[1])
		return &WithdrawEvent{
			Receiver: recipient,
			Owner:    recipient,
			Shares:   values[0].(*big.Int),
			Assets:   values[1].(*big.Int),
		}, nil
	case WithdrawTopic:
		values, err := unpack(erc4626EventsABI, "Withdraw", log, 4)
		if err != nil {
			return nil, err
		}
		return &WithdrawEvent{
			Sender:   topicAddress(log.Topics[1]),
			Receiver: topicAddress(log.Topics[2]),
			Owner:    topicAddress(log.Topics[3]),
			Assets:   values[0].(*big.Int),
			Shares:   values[1].(*big.Int),
		}, nil
	}
	return nil, fmt.Errorf("log topic %s is not a withdraw", log.Topics[0].Hex())
}

func DecodeTransfer(log types.Log) (*TransferEvent, error) {
	values, err := unpack(vaultV2EventsABI, "Transfer", log, 3)
	if err != nil {
		return nil, err
	}
	return &TransferEvent{
		From:  topicAddress(log.Topics[1]),
		To:    topicAddress(log.Topics[2]),
		Value: values[0].(*big.Int),
	}, nil
}

func DecodeStrategyReported(log types.Log) (*StrategyReportedEvent, error) {
	switch log.Topics[0] {
	case StrategyReportedV2Topic:
		values, err := unpack(vaultV2EventsABI, "StrategyReported", log, 2)
		if err != nil {
			return nil, err
		}
		return &StrategyReportedEvent{
			Strategy: topicAddress(log.Topics[1]),
			Gain:     values[0].(*big.Int),
			Loss:     values[1].(*big.Int),
		}, nil
	case StrategyReportedTopic:
		values, err := unpack(erc4626EventsABI, "StrategyReported", log, 2)
		if err != nil {
			return nil, err
		}
		return &StrategyReportedEvent{
			Strategy:  topicAddress(log.Topics[1]),
			Gain:      values[0].(*big.Int),
			Loss:      values[1].(*big.Int),
			TotalFees: values[4].(*big.Int),
		}, nil
	}
	return nil, fmt.Errorf("log topic %s is not a strategy report", log.Topics[0].Hex())
}

func DecodeRewardAdded(log types.Log) (*RewardAddedEvent, error) {
	values, err := unpack(RewarderABI, "RewardAdded", log, 1)
	if err != nil {
		return nil, err
	}
	return &RewardAddedEvent{Reward: values[0].(*big.Int)}, nil
}

// unpack decodes the non indexed arguments of a log after checking it carries
// the expected number of topics.
func unpack(parsed abi.ABI, event string, log types.Log, topics int) ([]interface{}, error) {
	if len(log.Topics) != topics {
		return nil, fmt.Errorf("%s log has %d topics, expected %d", event, len(log.Topics), topics)
	}
	values, err := parsed.Unpack(event, log.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s log data: %w", event, err)
	}
	return values, nil
}

func topicAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes())
}
