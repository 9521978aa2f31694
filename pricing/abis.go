package pricing

import (
	"github.com/streamingfast/defi-subgraphs/chain"
)

var (
	ERC20ABI = chain.MustParseABI(`[
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
	]`)

	FeedRegistryABI = chain.MustParseABI(`[
		{"name":"latestRoundData","type":"function","stateMutability":"view",
		 "inputs":[{"name":"base","type":"address"},{"name":"quote","type":"address"}],
		 "outputs":[{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}]},
		{"name":"decimals","type":"function","stateMutability":"view",
		 "inputs":[{"name":"base","type":"address"},{"name":"quote","type":"address"}],
		 "outputs":[{"name":"","type":"uint8"}]}
	]`)

	CurveCalculationsABI = chain.MustParseABI(`[
		{"name":"getCurvePriceUsdc","type":"function","stateMutability":"view","inputs":[{"name":"curveLpTokenAddress","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	CurveRegistryABI = chain.MustParseABI(`[
		{"name":"get_pool_from_lp_token","type":"function","stateMutability":"view","inputs":[{"name":"arg0","type":"address"}],"outputs":[{"name":"","type":"address"}]},
		{"name":"get_virtual_price_from_lp_token","type":"function","stateMutability":"view","inputs":[{"name":"_token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"get_underlying_coins","type":"function","stateMutability":"view","inputs":[{"name":"_pool","type":"address"}],"outputs":[{"name":"","type":"address[8]"}]}
	]`)

	UniswapRouterABI = chain.MustParseABI(`[
		{"name":"getAmountsOut","type":"function","stateMutability":"view",
		 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],
		 "outputs":[{"name":"amounts","type":"uint256[]"}]}
	]`)

	SushiCalculationsABI = chain.MustParseABI(`[
		{"name":"getPriceUsdc","type":"function","stateMutability":"view","inputs":[{"name":"tokenAddress","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	YearnLensABI = chain.MustParseABI(`[
		{"name":"getPriceUsdcRecommended","type":"function","stateMutability":"view","inputs":[{"name":"tokenAddress","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	AaveOracleABI = chain.MustParseABI(`[
		{"name":"getAssetPrice","type":"function","stateMutability":"view","inputs":[{"name":"asset","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
	]`)
)
