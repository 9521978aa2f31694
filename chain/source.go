package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

// LogClient is the subset of ethclient.Client used to stream logs.
type LogClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// BlockHandler receives the logs of one block, sorted by log index.
type BlockHandler func(ctx context.Context, block Block, logs []types.Log) error

type LogSource struct {
	client    LogClient
	addresses []common.Address
	topics    [][]common.Hash

	Confirmations uint64
	BatchSize     uint64
	PollInterval  time.Duration
}

func NewLogSource(client LogClient, addresses []common.Address, topics []common.Hash) *LogSource {
	var topicFilter [][]common.Hash
	if len(topics) > 0 {
		topicFilter = [][]common.Hash{topics}
	}

	return &LogSource{
		client:        client,
		addresses:     addresses,
		topics:        topicFilter,
		Confirmations: 12,
		BatchSize:     2000,
		PollInterval:  12 * time.Second,
	}
}

// Run streams blocks from startBlock onward until stopBlock (inclusive, 0 means
// follow the head forever) or until ctx is cancelled. Only blocks holding at
// least one matching log reach the handler.
func (s *LogSource) Run(ctx context.Context, startBlock, stopBlock uint64, handler BlockHandler) error {
	next := startBlock
	batchSize := s.BatchSize
	if batchSize == 0 {
		batchSize = 1
	}

	for {
		if stopBlock != 0 && next > stopBlock {
			return nil
		}

		head, err := s.client.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("fetching head block: %w", err)
		}
		if head < s.Confirmations || head-s.Confirmations < next {
			zlog.Debug("waiting for confirmed blocks", zap.Uint64("next", next), zap.Uint64("head", head))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.PollInterval):
			}
			continue
		}

		end := next + batchSize - 1
		if confirmed := head - s.Confirmations; end > confirmed {
			end = confirmed
		}
		if stopBlock != 0 && end > stopBlock {
			end = stopBlock
		}

		if err := s.processRange(ctx, next, end, handler); err != nil {
			return err
		}
		next = end + 1
	}
}

func (s *LogSource) processRange(ctx context.Context, from, to uint64, handler BlockHandler) error {
	logs, err := s.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: s.addresses,
		Topics:    s.topics,
	})
	if err != nil {
		return fmt.Errorf("filtering logs %d-%d: %w", from, to, err)
	}

	zlog.Debug("fetched logs", zap.Uint64("from", from), zap.Uint64("to", to), zap.Int("count", len(logs)))

	perBlock := map[uint64][]types.Log{}
	for _, log := range logs {
		if log.Removed {
			continue
		}
		perBlock[log.BlockNumber] = append(perBlock[log.BlockNumber], log)
	}

	blockNums := make([]uint64, 0, len(perBlock))
	for num := range perBlock {
		blockNums = append(blockNums, num)
	}
	sort.Slice(blockNums, func(i, j int) bool { return blockNums[i] < blockNums[j] })

	for _, num := range blockNums {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(num))
		if err != nil {
			return fmt.Errorf("fetching header %d: %w", num, err)
		}

		blockLogs := perBlock[num]
		sort.SliceStable(blockLogs, func(i, j int) bool { return blockLogs[i].Index < blockLogs[j].Index })

		block := Block{
			Number:    num,
			Hash:      eth.Hash(header.Hash().Bytes()),
			Timestamp: time.Unix(int64(header.Time), 0).UTC(),
		}
		if err := handler(ctx, block, blockLogs); err != nil {
			return fmt.Errorf("handling block %d: %w", num, err)
		}
	}
	return nil
}
