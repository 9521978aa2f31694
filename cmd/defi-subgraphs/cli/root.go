package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamingfast/defi-subgraphs/networks"
)

const envPrefix = "DEFI_SUBGRAPHS"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "defi-subgraphs",
	Short:        "Index yield aggregator vaults and monitor their subgraphs",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("networks-file", "", "YAML network registry replacing the embedded one")
	rootCmd.PersistentFlags().String("rpc-endpoint", "http://localhost:8545", "JSON-RPC endpoint of the chain node")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func loadRegistry() (*networks.Registry, error) {
	path := viper.GetString("networks-file")
	if path == "" {
		return networks.Default(), nil
	}

	registry, err := networks.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading networks file: %w", err)
	}
	return registry, nil
}
