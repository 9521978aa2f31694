package cli

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamingfast/defi-subgraphs/pricing"
	"go.uber.org/zap"
)

var priceCmd = &cobra.Command{
	Use:   "price <token>",
	Short: "Resolve the USD price of a token through the oracle fallback chain",
	RunE:  runPrice,
	Args:  cobra.ExactArgs(1),
}

func init() {
	priceCmd.Flags().String("network", "mainnet", "Network whose price sources are used")
	priceCmd.Flags().Uint64("block", 0, "Block to price at, 0 is the latest block")

	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid token address %q", args[0])
	}
	token := common.HexToAddress(args[0])

	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	network := viper.GetString("network")
	config, found := registry.Pricing[network]
	if !found {
		return fmt.Errorf("no price sources for network %q", network)
	}

	client, err := dialRPC(ctx, viper.GetString("rpc-endpoint"))
	if err != nil {
		return err
	}
	defer client.Close()

	blockNum := viper.GetUint64("block")
	if blockNum == 0 {
		if blockNum, err = client.BlockNumber(ctx); err != nil {
			return fmt.Errorf("fetching head block: %w", err)
		}
	}

	resolver, err := pricing.NewResolver(config, client)
	if err != nil {
		return err
	}

	var sources []string
	for _, oracle := range resolver.Oracles() {
		sources = append(sources, oracle.Name())
	}
	zlog.Debug("resolving price", zap.Stringer("token", token), zap.Uint64("block_num", blockNum), zap.Strings("sources", sources))

	price, err := resolver.GetUsdPricePerToken(ctx, token, new(big.Int).SetUint64(blockNum))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if price.Reverted() {
		fmt.Fprintf(out, "%s at block %d: no price found\n", token.Hex(), blockNum)
		return nil
	}
	fmt.Fprintf(out, "%s at block %d: %s USD (%s)\n", token.Hex(), blockNum, price.USDPrice().String(), price.Oracle())
	return nil
}
