package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogClient struct {
	head    uint64
	logs    []types.Log
	queries []ethereum.FilterQuery
}

func (c *fakeLogClient) BlockNumber(ctx context.Context) (uint64, error) {
	return c.head, nil
}

func (c *fakeLogClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) (out []types.Log, err error) {
	c.queries = append(c.queries, q)
	for _, log := range c.logs {
		if log.BlockNumber >= q.FromBlock.Uint64() && log.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, log)
		}
	}
	return out, nil
}

func (c *fakeLogClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: number, Time: 1_650_000_000 + number.Uint64()*12}, nil
}

func TestLogSource_Run(t *testing.T) {
	client := &fakeLogClient{
		head: 120,
		logs: []types.Log{
			{BlockNumber: 101, Index: 3},
			{BlockNumber: 101, Index: 1},
			{BlockNumber: 104, Index: 0},
			{BlockNumber: 105, Index: 7, Removed: true},
			{BlockNumber: 109, Index: 2},
		},
	}

	source := NewLogSource(client, []common.Address{testAddress}, []common.Hash{common.HexToHash("0x01")})
	source.Confirmations = 10
	source.BatchSize = 4

	type seen struct {
		block   uint64
		indexes []uint
	}
	var got []seen
	err := source.Run(context.Background(), 100, 110, func(ctx context.Context, block Block, logs []types.Log) error {
		var indexes []uint
		for _, log := range logs {
			indexes = append(indexes, log.Index)
		}
		assert.Equal(t, int64(1_650_000_000+block.Number*12), block.Timestamp.Unix())
		got = append(got, seen{block.Number, indexes})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []seen{
		{101, []uint{1, 3}},
		{104, []uint{0}},
		{109, []uint{2}},
	}, got)

	require.Len(t, client.queries, 3)
	assert.Equal(t, uint64(100), client.queries[0].FromBlock.Uint64())
	assert.Equal(t, uint64(103), client.queries[0].ToBlock.Uint64())
	assert.Equal(t, uint64(108), client.queries[2].FromBlock.Uint64())
	assert.Equal(t, uint64(110), client.queries[2].ToBlock.Uint64())
	assert.Equal(t, [][]common.Hash{{common.HexToHash("0x01")}}, client.queries[0].Topics)
}

func TestLogSource_Run_Cancelled(t *testing.T) {
	client := &fakeLogClient{head: 5}
	source := NewLogSource(client, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := source.Run(ctx, 100, 0, func(ctx context.Context, block Block, logs []types.Log) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
