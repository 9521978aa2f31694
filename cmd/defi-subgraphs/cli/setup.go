package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gorilla/mux"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/metrics"
	"github.com/streamingfast/defi-subgraphs/state"
	"github.com/streamingfast/defi-subgraphs/storage"
	"github.com/streamingfast/defi-subgraphs/storage/kv"
	"github.com/streamingfast/defi-subgraphs/storage/mongo"
	"github.com/streamingfast/defi-subgraphs/storage/postgres"
	"github.com/streamingfast/defi-subgraphs/subscription"
	"go.uber.org/zap"
)

// openStore picks the entity store from the scheme of storeURL:
// memory://, kv://<dir>, postgres://..., mongodb://.../<database>.
func openStore(ctx context.Context, storeURL string) (storage.Store, error) {
	parsed, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid store url %q: %w", storeURL, err)
	}

	switch parsed.Scheme {
	case "memory":
		return kv.NewMemory(), nil
	case "kv":
		dir := strings.TrimPrefix(storeURL, "kv://")
		if dir == "" {
			return nil, fmt.Errorf("store url %q: missing directory", storeURL)
		}
		return kv.New(ctx, dir, state.DefaultCheckpointInterval)
	case "postgres", "postgresql":
		return postgres.New(ctx, storeURL)
	case "mongodb", "mongodb+srv":
		database := strings.TrimPrefix(parsed.Path, "/")
		if database == "" {
			database = "defi_subgraphs"
		}
		return mongo.New(ctx, storeURL, database)
	}
	return nil, fmt.Errorf("unsupported store url scheme %q", parsed.Scheme)
}

// printDeltas logs every change the kv store makes to the given tables.
func printDeltas(ctx context.Context, store storage.Store, tables []string) error {
	kvStore, ok := store.(*kv.Store)
	if !ok {
		zlog.Warn("printing deltas needs a kv store, ignoring", zap.Strings("tables", tables))
		return nil
	}

	hub := subscription.NewHub()
	sub := subscription.NewSubscriber()
	for _, table := range tables {
		if _, known := entity.Definition.GetType(table); !known {
			return fmt.Errorf("unknown table %q, known tables: %s", table, strings.Join(entity.Definition.TableNames(), ", "))
		}
		if err := hub.RegisterTopic(table); err != nil {
			return err
		}
		if err := hub.Subscribe(sub, table); err != nil {
			return err
		}
	}
	kvStore.WithHub(hub)

	go func() {
		for {
			delta, err := sub.Next(ctx)
			if err != nil {
				return
			}
			zlog.Info("delta", zap.Stringer("delta", delta))
		}
	}()
	return nil
}

func dialRPC(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dialing rpc %s: %w", endpoint, err)
	}
	return client, nil
}

// health tracks whether the indexer is making progress.
type health struct {
	lastBlock atomic.Int64
	maxIdle   time.Duration
	now       func() time.Time
}

func newHealth(maxIdle time.Duration) *health {
	return &health{maxIdle: maxIdle, now: time.Now}
}

func (h *health) processed() {
	h.lastBlock.Store(h.now().UnixNano())
}

func (h *health) healthy() bool {
	last := h.lastBlock.Load()
	return last != 0 && h.now().Sub(time.Unix(0, last)) <= h.maxIdle
}

func newRouter(h *health) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !h.healthy() {
			http.Error(w, "indexer idle", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return router
}

func serveMetrics(ctx context.Context, addr string, h *health) {
	if addr == "" {
		return
	}

	server := &http.Server{Addr: addr, Handler: newRouter(h), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		zlog.Info("serving metrics", zap.String("listen_addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("metrics server failed", zap.Error(err), zap.String("listen_addr", addr))
		}
	}()
}
