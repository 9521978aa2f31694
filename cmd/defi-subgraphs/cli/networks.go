package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/streamingfast/defi-subgraphs/networks"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the known protocol deployments",
	RunE:  runNetworks,
	Args:  cobra.NoArgs,
}

func init() {
	rootCmd.AddCommand(networksCmd)
}

func runNetworks(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, deployment := range registry.Deployments() {
		config, err := registry.Lookup(deployment.Protocol, deployment.Network)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-28s %-24s vaults=%d start_block=%d\n", deployment, config.Slug, len(config.Vaults), config.StartBlock())
	}
	return nil
}

func deploymentOf(protocol, network string) networks.Deployment {
	return networks.Deployment{Protocol: protocol, Network: network}
}
