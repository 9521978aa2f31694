package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/state"
	"github.com/streamingfast/defi-subgraphs/storage"
	"github.com/streamingfast/defi-subgraphs/subscription"
	"go.uber.org/zap"
)

// Store keeps entities as JSON in a state.Builder. With a data folder the
// state is checkpointed to disk, otherwise it lives in memory only.
type Store struct {
	state     *state.Builder
	persisted bool
	lastBlock uint64

	hub *subscription.Hub
}

var _ storage.Store = (*Store)(nil)

func NewMemory() *Store {
	return &Store{state: state.New("entities", nil)}
}

func New(ctx context.Context, dataFolder string, checkpointInterval uint64) (*Store, error) {
	builder := state.New("entities", state.NewDiskStateIOFactory(dataFolder)).WithCheckpointInterval(checkpointInterval)

	checkpoint, found, err := builder.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading kv store from %s: %w", dataFolder, err)
	}
	if found {
		zlog.Info("resuming kv store from checkpoint", zap.String("data_folder", dataFolder), zap.Uint64("checkpoint", checkpoint))
	}

	return &Store{state: builder, persisted: true}, nil
}

// WithHub publishes the deltas of every saved block to hub, under the table
// name of the entity changed.
func (s *Store) WithHub(hub *subscription.Hub) *Store {
	s.hub = hub
	return s
}

func Key(table, id string) string {
	return table + ":" + id
}

func (s *Store) Load(ctx context.Context, id string, ent entity.Entity) error {
	data, found := s.state.GetLast(Key(ent.TableName(), id))
	if !found {
		ent.SetExists(false)
		return nil
	}

	if err := json.Unmarshal(data, ent); err != nil {
		return fmt.Errorf("decoding %s %s: %w", ent.TableName(), id, err)
	}
	ent.SetID(id)
	ent.SetExists(true)
	return nil
}

func (s *Store) BatchSave(ctx context.Context, blockNum uint64, updates storage.Updates, cursor *entity.Cursor) error {
	var ordinal uint64
	err := updates.Each(func(table, id string, ent entity.Entity) error {
		ordinal++
		if ent == nil {
			s.state.Del(ordinal, Key(table, id))
			return nil
		}

		data, err := json.Marshal(ent)
		if err != nil {
			return fmt.Errorf("encoding: %w", err)
		}
		s.state.Set(ordinal, Key(table, id), data)
		return nil
	})
	if err != nil {
		return err
	}

	if cursor != nil {
		data, err := json.Marshal(cursor)
		if err != nil {
			return fmt.Errorf("encoding cursor: %w", err)
		}
		s.state.Set(ordinal+1, Key(cursor.TableName(), storage.CursorID), data)
	}

	if ce := zlog.Check(zap.DebugLevel, "kv deltas"); ce != nil {
		for _, delta := range s.state.Deltas {
			zlog.Debug("kv delta", zap.Uint64("block_num", blockNum), zap.Stringer("delta", delta))
		}
	}

	if s.hub != nil {
		if err := s.broadcast(ctx); err != nil {
			return fmt.Errorf("broadcasting block %d: %w", blockNum, err)
		}
	}

	if err := s.state.StoreBlock(ctx, blockNum); err != nil {
		return fmt.Errorf("storing block %d: %w", blockNum, err)
	}
	s.lastBlock = blockNum
	return nil
}

func (s *Store) broadcast(ctx context.Context) error {
	byTable := map[string][]state.StateDelta{}
	var tables []string
	for _, delta := range s.state.Deltas {
		table, _, _ := strings.Cut(delta.Key, ":")
		if _, found := byTable[table]; !found {
			tables = append(tables, table)
		}
		byTable[table] = append(byTable[table], delta)
	}

	for _, table := range tables {
		if err := s.hub.BroadcastDeltas(ctx, table, byTable[table]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LoadCursor(ctx context.Context) (*entity.Cursor, error) {
	cursor := entity.NewCursor(storage.CursorID)
	if err := s.Load(ctx, storage.CursorID, cursor); err != nil {
		return nil, err
	}
	if !cursor.Exists() {
		return nil, storage.ErrNotFound
	}
	return cursor, nil
}

// Close writes a final checkpoint so a restart resumes from the last block
// saved.
func (s *Store) Close() error {
	if !s.persisted || s.lastBlock == 0 {
		return nil
	}
	return s.state.WriteState(context.Background(), s.lastBlock)
}
