package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// MockCaller answers contract reads from canned responses keyed by contract
// address and method selector. Unregistered calls revert.
type MockCaller struct {
	lock      sync.Mutex
	responses map[string]mockResponse
	names     map[string]string

	Calls []string
}

type mockResponse struct {
	output []byte
	revert bool
	err    error
}

func NewMockCaller() *MockCaller {
	return &MockCaller{
		responses: map[string]mockResponse{},
		names:     map[string]string{},
	}
}

// On registers the outputs returned by method on address. Outputs are packed
// with the method's output arguments.
func (m *MockCaller) On(address common.Address, parsed abi.ABI, method string, outputs ...interface{}) *MockCaller {
	def := mustMethod(parsed, method)
	out, err := def.Outputs.Pack(outputs...)
	if err != nil {
		panic(fmt.Sprintf("packing mock outputs of %s: %s", method, err))
	}
	return m.set(address, def, mockResponse{output: out})
}

// OnRaw registers raw return data, useful to simulate undecodable outputs.
func (m *MockCaller) OnRaw(address common.Address, parsed abi.ABI, method string, raw []byte) *MockCaller {
	return m.set(address, mustMethod(parsed, method), mockResponse{output: raw})
}

func (m *MockCaller) Revert(address common.Address, parsed abi.ABI, method string) *MockCaller {
	return m.set(address, mustMethod(parsed, method), mockResponse{revert: true})
}

// Fail makes method on address return a transport error.
func (m *MockCaller) Fail(address common.Address, parsed abi.ABI, method string, err error) *MockCaller {
	return m.set(address, mustMethod(parsed, method), mockResponse{err: err})
}

func (m *MockCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("invalid call message")
	}

	key := mockKey(*msg.To, msg.Data[:4])

	m.lock.Lock()
	defer m.lock.Unlock()

	name := m.names[key]
	if name == "" {
		name = hex.EncodeToString(msg.Data[:4])
	}
	m.Calls = append(m.Calls, strings.ToLower(msg.To.Hex())+"."+name)

	resp, found := m.responses[key]
	if !found || resp.revert {
		return nil, fmt.Errorf("execution reverted")
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.output, nil
}

func (m *MockCaller) set(address common.Address, method abi.Method, resp mockResponse) *MockCaller {
	key := mockKey(address, method.ID)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.responses[key] = resp
	m.names[key] = method.Name
	return m
}

func mustMethod(parsed abi.ABI, method string) abi.Method {
	def, found := parsed.Methods[method]
	if !found {
		panic(fmt.Sprintf("method %q not in abi", method))
	}
	return def
}

func mockKey(address common.Address, selector []byte) string {
	return strings.ToLower(address.Hex()) + ":" + hex.EncodeToString(selector)
}
