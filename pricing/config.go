package pricing

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Contract locates one price source on a network. Blacklisted tokens are never
// priced by that source, and blocks before StartBlock get no answer.
type Contract struct {
	Address    string   `yaml:"address"`
	StartBlock uint64   `yaml:"startBlock"`
	Blacklist  []string `yaml:"blacklist,omitempty"`
}

type Router struct {
	Contract `yaml:",inline"`
	Name     string `yaml:"name"`
}

type AaveContract struct {
	Contract `yaml:",inline"`
	Decimals int32 `yaml:"decimals"`
}

type Config struct {
	ChainlinkFeedRegistry *Contract     `yaml:"chainlinkFeedRegistry,omitempty"`
	CurveCalculations     *Contract     `yaml:"curveCalculations,omitempty"`
	CurveRegistries       []Contract    `yaml:"curveRegistries,omitempty"`
	UniswapForkRouters    []Router      `yaml:"uniswapForkRouters,omitempty"`
	SushiCalculations     *Contract     `yaml:"sushiCalculations,omitempty"`
	YearnLens             *Contract     `yaml:"yearnLens,omitempty"`
	AaveOracle            *AaveContract `yaml:"aaveOracle,omitempty"`

	WETH         string   `yaml:"weth"`
	USDC         string   `yaml:"usdc"`
	USDCDecimals int32    `yaml:"usdcDecimals"`
	Stables      []string `yaml:"stables,omitempty"`
}

func (c *Config) Validate() error {
	for _, addr := range append([]string{c.WETH, c.USDC}, c.Stables...) {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid token address %q", addr)
		}
	}

	contracts := []*Contract{c.ChainlinkFeedRegistry, c.CurveCalculations, c.SushiCalculations, c.YearnLens}
	for i := range c.CurveRegistries {
		contracts = append(contracts, &c.CurveRegistries[i])
	}
	for i := range c.UniswapForkRouters {
		contracts = append(contracts, &c.UniswapForkRouters[i].Contract)
	}
	if c.AaveOracle != nil {
		contracts = append(contracts, &c.AaveOracle.Contract)
	}

	for _, contract := range contracts {
		if contract == nil {
			continue
		}
		if !common.IsHexAddress(contract.Address) {
			return fmt.Errorf("invalid contract address %q", contract.Address)
		}
		for _, token := range contract.Blacklist {
			if !common.IsHexAddress(token) {
				return fmt.Errorf("invalid blacklisted address %q for contract %s", token, contract.Address)
			}
		}
	}
	return nil
}

// guard holds the checks every adapter runs before reaching its contract.
type guard struct {
	startBlock uint64
	blacklist  map[common.Address]bool
}

func newGuard(contract Contract) guard {
	g := guard{startBlock: contract.StartBlock, blacklist: map[common.Address]bool{}}
	for _, token := range contract.Blacklist {
		g.blacklist[common.HexToAddress(token)] = true
	}
	return g
}

func (g guard) allows(token common.Address, block *big.Int) bool {
	if g.blacklist[token] {
		return false
	}
	if block != nil && block.Uint64() < g.startBlock {
		return false
	}
	return true
}
