package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamingfast/defi-subgraphs/monitor"
	"github.com/streamingfast/defi-subgraphs/networks"
	"go.uber.org/zap"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Check every deployed subgraph and post a report to Discord",
	RunE:  runMonitor,
	Args:  cobra.NoArgs,
}

func init() {
	monitorCmd.Flags().String("discord-channel", "", "Discord channel id receiving the report")
	monitorCmd.Flags().String("endpoint-template", "https://api.thegraph.com/subgraphs/name/messari/{slug}-{network}", "Subgraph query endpoint, {slug} and {network} are substituted")
	monitorCmd.Flags().StringToString("chain-rpc", nil, "JSON-RPC endpoints per network used to measure indexing lag, e.g. mainnet=http://...")
	monitorCmd.Flags().Uint64("max-lag", 1000, "Blocks a subgraph may trail the chain head before an alert")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	token := viper.GetString("discord-token")
	if token == "" {
		return fmt.Errorf("discord bot token not set, export %s_DISCORD_TOKEN", envPrefix)
	}
	channel := viper.GetString("discord-channel")
	if channel == "" {
		return fmt.Errorf("--discord-channel is required")
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	m := monitor.New(client, monitor.NewDiscord(client, token), channel, targets(registry, viper.GetString("endpoint-template")))
	m.MaxLag = viper.GetUint64("max-lag")

	if endpoints := viper.GetStringMapString("chain-rpc"); len(endpoints) > 0 {
		m.Head = chainHeads(endpoints)
	}

	alerts, err := m.Check(ctx)
	if err != nil {
		return fmt.Errorf("monitor pass: %w", err)
	}
	for _, alert := range alerts {
		fmt.Fprintln(cmd.OutOrStdout(), alert)
	}
	return nil
}

func targets(registry *networks.Registry, template string) (out []monitor.Target) {
	for _, deployment := range registry.Deployments() {
		config, err := registry.Lookup(deployment.Protocol, deployment.Network)
		if err != nil {
			continue
		}
		endpoint := strings.NewReplacer("{slug}", config.Slug, "{network}", deployment.Network).Replace(template)
		out = append(out, monitor.Target{
			Name:     deployment.String(),
			Network:  deployment.Network,
			Endpoint: endpoint,
		})
	}
	return
}

func chainHeads(endpoints map[string]string) monitor.HeadFunc {
	return func(ctx context.Context, network string) (uint64, error) {
		endpoint, found := endpoints[network]
		if !found {
			return 0, fmt.Errorf("no rpc endpoint for network %q", network)
		}
		client, err := dialRPC(ctx, endpoint)
		if err != nil {
			return 0, err
		}
		defer client.Close()

		head, err := client.BlockNumber(ctx)
		if err != nil {
			zlog.Debug("head lookup failed", zap.String("network", network), zap.Error(err))
			return 0, err
		}
		return head, nil
	}
}
