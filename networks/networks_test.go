package networks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Lookup(t *testing.T) {
	registry := Default()

	config, err := registry.Lookup("yearn-v2", "mainnet")
	require.NoError(t, err)

	assert.Equal(t, "yearn-v2", config.Protocol)
	assert.Equal(t, "mainnet", config.Network)
	assert.Equal(t, "Yearn v2", config.Name)
	assert.Equal(t, int64(2000), config.DefaultPerformanceFeeBps)
	assert.Len(t, config.Vaults, 3)
	assert.Equal(t, uint64(12588794), config.StartBlock())

	require.NotNil(t, config.Pricing.ChainlinkFeedRegistry)
	assert.Equal(t, uint64(12864088), config.Pricing.ChainlinkFeedRegistry.StartBlock)
	require.Len(t, config.Pricing.UniswapForkRouters, 2)
	assert.Equal(t, "SushiSwapRouter", config.Pricing.UniswapForkRouters[1].Name)
	assert.Equal(t, int32(8), config.Pricing.AaveOracle.Decimals)
	assert.NoError(t, config.Pricing.Validate())
}

func TestDefault_EveryDeploymentBuildsAResolver(t *testing.T) {
	registry := Default()

	for _, deployment := range registry.Deployments() {
		t.Run(deployment.String(), func(t *testing.T) {
			config, err := registry.Lookup(deployment.Protocol, deployment.Network)
			require.NoError(t, err)

			_, err = pricing.NewResolver(config.Pricing, chain.NewMockCaller())
			require.NoError(t, err)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	registry := Default()

	_, err := registry.Lookup("yearn-v2", "fantom")
	assert.ErrorIs(t, err, ErrUnknownDeployment)

	_, err = registry.Lookup("beefy", "mainnet")
	assert.ErrorIs(t, err, ErrUnknownDeployment)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	registry := Default()

	first, err := registry.Lookup("yearn-v2", "mainnet")
	require.NoError(t, err)
	first.Vaults[0].Address = "0x0"

	second, err := registry.Lookup("yearn-v2", "mainnet")
	require.NoError(t, err)
	assert.NotEqual(t, "0x0", second.Vaults[0].Address)
}

func TestDeployments(t *testing.T) {
	assert.Equal(t, []Deployment{
		{Protocol: "yearn-v2", Network: "mainnet"},
		{Protocol: "yearn-v3", Network: "mainnet"},
	}, Default().Deployments())
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectError bool
	}{
		{
			name: "valid",
			content: `
pricing:
  sepolia:
    weth: "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"
    usdc: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
deployments:
  yearn-v3:
    sepolia:
      name: Yearn v3
      slug: yearn-v3
      vaults:
        - address: "0x0000000000000000000000000000000000000001"
          startBlock: 10
`,
		},
		{
			name: "missing network pricing",
			content: `
deployments:
  yearn-v3:
    sepolia:
      name: Yearn v3
`,
			expectError: true,
		},
		{
			name: "unknown field",
			content: `
pricing: {}
deployments:
  yearn-v3:
    sepolia:
      nmae: typo
`,
			expectError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "networks.yaml")
			require.NoError(t, os.WriteFile(path, []byte(test.content), 0644))

			registry, err := LoadFile(path)
			if test.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			config, err := registry.Lookup("yearn-v3", "sepolia")
			require.NoError(t, err)
			assert.Equal(t, uint64(10), config.StartBlock())
			assert.Equal(t, "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", config.Pricing.USDC)
		})
	}
}
