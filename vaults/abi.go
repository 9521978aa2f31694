package vaults

import (
	"github.com/streamingfast/defi-subgraphs/chain"
)

var (
	// VaultABI holds the read methods of Yearn v2 and ERC-4626 vaults.
	VaultABI = chain.MustParseABI(`[
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"token","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"asset","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"totalAssets","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"pricePerShare","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"convertToAssets","type":"function","stateMutability":"view","inputs":[{"name":"shares","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"performanceFee","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
	]`)

	ERC20ABI = chain.MustParseABI(`[
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
	]`)

	// ERC20Bytes32ABI covers old tokens returning name and symbol as bytes32.
	ERC20Bytes32ABI = chain.MustParseABI(`[
		{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
	]`)

	RewarderABI = chain.MustParseABI(`[
		{"name":"rewardRate","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"rewardsToken","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"RewardAdded","type":"event","anonymous":false,"inputs":[{"name":"reward","type":"uint256","indexed":false}]}
	]`)

	vaultV2EventsABI = chain.MustParseABI(`[
		{"name":"Deposit","type":"event","anonymous":false,"inputs":[
			{"name":"recipient","type":"address","indexed":true},
			{"name":"shares","type":"uint256","indexed":false},
			{"name":"amount","type":"uint256","indexed":false}]},
		{"name":"Withdraw","type":"event","anonymous":false,"inputs":[
			{"name":"recipient","type":"address","indexed":true},
			{"name":"shares","type":"uint256","indexed":false},
			{"name":"amount","type":"uint256","indexed":false}]},
		{"name":"Transfer","type":"event","anonymous":false,"inputs":[
			{"name":"sender","type":"address","indexed":true},
			{"name":"receiver","type":"address","indexed":true},
			{"name":"value","type":"uint256","indexed":false}]},
		{"name":"StrategyReported","type":"event","anonymous":false,"inputs":[
			{"name":"strategy","type":"address","indexed":true},
			{"name":"gain","type":"uint256","indexed":false},
			{"name":"loss","type":"uint256","indexed":false},
			{"name":"debtPaid","type":"uint256","indexed":false},
			{"name":"totalGain","type":"uint256","indexed":false},
			{"name":"totalLoss","type":"uint256","indexed":false},
			{"name":"totalDebt","type":"uint256","indexed":false},
			{"name":"debtAdded","type":"uint256","indexed":false},
			{"name":"debtRatio","type":"uint256","indexed":false}]}
	]`)

	erc4626EventsABI = chain.MustParseABI(`[
		{"name":"Deposit","type":"event","anonymous":false,"inputs":[
			{"name":"sender","type":"address","indexed":true},
			{"name":"owner","type":"address","indexed":true},
			{"name":"assets","type":"uint256","indexed":false},
			{"name":"shares","type":"uint256","indexed":false}]},
		{"name":"Withdraw","type":"event","anonymous":false,"inputs":[
			{"name":"sender","type":"address","indexed":true},
			{"name":"receiver","type":"address","indexed":true},
			{"name":"owner","type":"address","indexed":true},
			{"name":"assets","type":"uint256","indexed":false},
			{"name":"shares","type":"uint256","indexed":false}]},
		{"name":"StrategyReported","type":"event","anonymous":false,"inputs":[
			{"name":"strategy","type":"address","indexed":true},
			{"name":"gain","type":"uint256","indexed":false},
			{"name":"loss","type":"uint256","indexed":false},
			{"name":"current_debt","type":"uint256","indexed":false},
			{"name":"protocol_fees","type":"uint256","indexed":false},
			{"name":"total_fees","type":"uint256","indexed":false},
			{"name":"total_refunds","type":"uint256","indexed":false}]}
	]`)
)
