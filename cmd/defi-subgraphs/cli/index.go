package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamingfast/defi-subgraphs/chain"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/loader"
	"github.com/streamingfast/defi-subgraphs/pricing"
	"github.com/streamingfast/defi-subgraphs/storage"
	"github.com/streamingfast/defi-subgraphs/tokenlist"
	"github.com/streamingfast/defi-subgraphs/vaults"
	"go.uber.org/zap"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the vaults of a protocol deployment into an entity store",
	RunE:  runIndex,
	Args:  cobra.NoArgs,
}

func init() {
	indexCmd.Flags().String("protocol", "", "Protocol of the deployment, e.g. yearn-v2")
	indexCmd.Flags().String("network", "mainnet", "Network of the deployment")
	indexCmd.Flags().String("store", "kv://./localdata", "Entity store: memory://, kv://<dir>, postgres://... or mongodb://...")
	indexCmd.Flags().Int64("start-block", -1, "First block to index, -1 resumes from the store cursor or the deployment start")
	indexCmd.Flags().Uint64("stop-block", 0, "Last block to index, 0 follows the chain head")
	indexCmd.Flags().Uint64("confirmations", 12, "Blocks kept behind the head before indexing")
	indexCmd.Flags().Uint64("batch-size", 2000, "Maximum block range of one log query")
	indexCmd.Flags().String("token-list-cid", "", "IPFS CID of a token list used before contract reads for token metadata")
	indexCmd.Flags().String("ipfs-gateway", tokenlist.DefaultGateway, "IPFS gateway used to fetch the token list")
	indexCmd.Flags().String("metrics-listen-addr", ":9102", "Address serving /metrics and /healthz, empty disables")
	indexCmd.Flags().StringSlice("print-deltas", nil, "Log the kv store changes of these tables, e.g. vault,deposit")
	indexCmd.Flags().Duration("max-idle", 10*time.Minute, "Time without a processed block before /healthz fails")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	config, err := registry.Lookup(viper.GetString("protocol"), viper.GetString("network"))
	if err != nil {
		return err
	}

	client, err := dialRPC(ctx, viper.GetString("rpc-endpoint"))
	if err != nil {
		return err
	}
	defer client.Close()

	resolver, err := pricing.NewResolver(config.Pricing, client)
	if err != nil {
		return fmt.Errorf("setting up price resolver: %w", err)
	}

	tokens := loadTokenList(ctx, client, viper.GetString("ipfs-gateway"), viper.GetString("token-list-cid"))

	store, err := openStore(ctx, viper.GetString("store"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Error("closing store", zap.Error(err))
		}
	}()

	if tables := viper.GetStringSlice("print-deltas"); len(tables) > 0 {
		if err := printDeltas(ctx, store, tables); err != nil {
			return err
		}
	}

	startBlock, err := resolveStartBlock(ctx, store, viper.GetInt64("start-block"), config.StartBlock())
	if err != nil {
		return err
	}

	subgraph := vaults.New(config, loader.New(store, entity.Definition), resolver, client, tokens)

	source := chain.NewLogSource(client, subgraph.Addresses(), vaults.Topics())
	source.Confirmations = viper.GetUint64("confirmations")
	source.BatchSize = viper.GetUint64("batch-size")

	h := newHealth(viper.GetDuration("max-idle"))
	serveMetrics(ctx, viper.GetString("metrics-listen-addr"), h)

	zlog.Info("starting indexer",
		zap.Stringer("deployment", deploymentOf(config.Protocol, config.Network)),
		zap.Int("vaults", len(config.Vaults)),
		zap.Uint64("start_block", startBlock),
		zap.Uint64("stop_block", viper.GetUint64("stop-block")),
	)

	err = source.Run(ctx, startBlock, viper.GetUint64("stop-block"), func(ctx context.Context, block chain.Block, logs []types.Log) error {
		if err := subgraph.ProcessBlock(ctx, block, logs); err != nil {
			return err
		}
		h.processed()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("indexing: %w", err)
	}
	return nil
}

// resolveStartBlock picks the explicit start block, else the block after the
// store cursor, else the deployment start.
func resolveStartBlock(ctx context.Context, store storage.Store, explicit int64, deploymentStart uint64) (uint64, error) {
	if explicit >= 0 {
		return uint64(explicit), nil
	}

	cursor, err := store.LoadCursor(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return deploymentStart, nil
		}
		return 0, fmt.Errorf("loading cursor: %w", err)
	}

	zlog.Info("resuming from cursor", zap.Uint64("block_num", cursor.BlockNumber), zap.String("block_hash", cursor.BlockHash))
	return cursor.BlockNumber + 1, nil
}

type chainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// loadTokenList is best effort, metadata falls back to contract reads.
func loadTokenList(ctx context.Context, client chainIDReader, gateway, cid string) *tokenlist.List {
	if cid == "" {
		return nil
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		zlog.Warn("unable to read chain id, token list skipped", zap.Error(err))
		return nil
	}

	list, err := tokenlist.Fetch(ctx, nil, gateway, cid, chainID.Int64())
	if err != nil {
		zlog.Warn("unable to fetch token list", zap.String("cid", cid), zap.Error(err))
		return nil
	}
	return list
}
