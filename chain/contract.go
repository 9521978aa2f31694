package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// ErrReverted marks a contract read that failed on-chain, or whose output could
// not be decoded. It is an expected outcome, callers substitute a default.
var ErrReverted = errors.New("execution reverted")

// Caller is the subset of ethclient.Client needed to read contract state.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Contract struct {
	Address common.Address

	abi    abi.ABI
	caller Caller
}

func NewContract(address common.Address, parsed abi.ABI, caller Caller) *Contract {
	return &Contract{
		Address: address,
		abi:     parsed,
		caller:  caller,
	}
}

// Call runs a read-only call against the contract at the given block, nil
// meaning latest.
func (c *Contract) Call(ctx context.Context, block *big.Int, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s call: %w", method, err)
	}

	to := c.Address
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%s on %s: %w", method, c.Address.Hex(), ErrReverted)
		}
		return nil, fmt.Errorf("calling %s on %s: %w", method, c.Address.Hex(), err)
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		zlog.Debug("undecodable call output", zap.String("method", method), zap.Stringer("contract", c.Address), zap.Error(err))
		return nil, fmt.Errorf("%s on %s: decoding output: %w", method, c.Address.Hex(), ErrReverted)
	}
	return values, nil
}

func IsReverted(err error) bool {
	return errors.Is(err, ErrReverted)
}

func isRevert(err error) bool {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "revert") || strings.Contains(msg, "invalid opcode")
}

func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid abi definition: %s", err))
	}
	return parsed
}
