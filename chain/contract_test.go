package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testABI = MustParseABI(`[
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`)

var testAddress = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

func TestContract_Call(t *testing.T) {
	caller := NewMockCaller().
		On(testAddress, testABI, "decimals", uint8(18)).
		On(testAddress, testABI, "balanceOf", big.NewInt(42))

	contract := NewContract(testAddress, testABI, caller)

	out, err := contract.Call(context.Background(), nil, "decimals")
	require.NoError(t, err)
	assert.Equal(t, uint8(18), out[0].(uint8))

	out, err = contract.Call(context.Background(), big.NewInt(100), "balanceOf", common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(42).Cmp(out[0].(*big.Int)))

	assert.Equal(t, []string{
		"0x6b175474e89094c44da98b954eedeac495271d0f.decimals",
		"0x6b175474e89094c44da98b954eedeac495271d0f.balanceOf",
	}, caller.Calls)
}

func TestContract_Call_Reverts(t *testing.T) {
	caller := NewMockCaller().
		Revert(testAddress, testABI, "decimals").
		OnRaw(testAddress, testABI, "balanceOf", []byte{0x01})

	contract := NewContract(testAddress, testABI, caller)

	tests := []struct {
		name   string
		method string
		args   []interface{}
	}{
		{"explicit revert", "decimals", nil},
		{"unregistered method", "symbol", nil},
		{"undecodable output", "balanceOf", []interface{}{common.HexToAddress("0x01")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := contract.Call(context.Background(), nil, test.method, test.args...)
			require.Error(t, err)
			assert.True(t, IsReverted(err))
		})
	}
}

func TestContract_Call_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	caller := NewMockCaller().Fail(testAddress, testABI, "decimals", boom)

	_, err := NewContract(testAddress, testABI, caller).Call(context.Background(), nil, "decimals")
	require.Error(t, err)
	assert.False(t, IsReverted(err))
	assert.ErrorIs(t, err, boom)
}

func TestContract_Call_PackError(t *testing.T) {
	_, err := NewContract(testAddress, testABI, NewMockCaller()).Call(context.Background(), nil, "unknown")
	require.Error(t, err)
	assert.False(t, IsReverted(err))
}
