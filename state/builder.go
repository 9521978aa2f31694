package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const DefaultCheckpointInterval = 100

// Builder is an in-memory key/value state. Writes of the block being processed
// are applied right away and also kept as ordered deltas until Flush, for
// subscribers of the block's changes.
type Builder struct {
	Name string

	io                 StateIO
	checkpointInterval uint64
	lastCheckpoint     uint64

	Deltas      []StateDelta // Deltas are always deltas for the current block.
	KV          map[string][]byte
	lastOrdinal uint64
}

type StateDelta struct {
	Op       string // "c"reate, "u"pdate, "d"elete
	Ordinal  uint64 // a sorting key to order deltas, and provide pointers to changes midway
	Key      string
	OldValue []byte
	NewValue []byte
}

func (d StateDelta) String() string {
	return fmt.Sprintf("%s (o=%d) KEY: %q OLD: %s NEW: %s", strings.ToUpper(d.Op), d.Ordinal, d.Key, string(d.OldValue), string(d.NewValue))
}

var _ Reader = (*Builder)(nil)
var _ Writer = (*Builder)(nil)

func New(name string, ioFactory IOFactory) *Builder {
	b := &Builder{
		Name:               name,
		KV:                 make(map[string][]byte),
		checkpointInterval: DefaultCheckpointInterval,
	}
	if ioFactory != nil {
		b.io = ioFactory.New(name)
	}
	return b
}

func (b *Builder) WithCheckpointInterval(interval uint64) *Builder {
	if interval > 0 {
		b.checkpointInterval = interval
	}
	return b
}

func (b *Builder) checkpointOf(blockNum uint64) uint64 {
	return (blockNum / b.checkpointInterval) * b.checkpointInterval
}

// Init loads the most recent checkpoint written, if any, and reports the
// checkpoint block it was found at.
func (b *Builder) Init(ctx context.Context) (uint64, bool, error) {
	if b.io == nil {
		return 0, false, nil
	}

	blockNum, found, err := b.io.LastState(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("looking up %s checkpoints: %w", b.Name, err)
	}
	if !found {
		return 0, false, nil
	}

	if err := b.ReadState(ctx, blockNum); err != nil {
		return 0, false, err
	}
	b.lastCheckpoint = blockNum
	return blockNum, true, nil
}

func (b *Builder) GetLast(key string) ([]byte, bool) {
	val, found := b.KV[key]
	return val, found
}

func (b *Builder) Del(ord uint64, key string) {
	b.bumpOrdinal(ord)

	val, found := b.GetLast(key)
	if found {
		delta := &StateDelta{
			Op:       "d",
			Ordinal:  ord,
			Key:      key,
			OldValue: val,
			NewValue: nil,
		}
		b.applyDelta(delta)
		b.Deltas = append(b.Deltas, *delta)
	}
}

func (b *Builder) bumpOrdinal(ord uint64) {
	if b.lastOrdinal > ord {
		panic("cannot Set or Del a value on a state.Builder with an ordinal lower than the previous")
	}
	b.lastOrdinal = ord
}

func (b *Builder) Set(ord uint64, key string, value []byte) {
	b.bumpOrdinal(ord)

	val, found := b.GetLast(key)

	var delta *StateDelta
	if found {
		if bytes.Equal(value, val) {
			return
		}
		delta = &StateDelta{
			Op:       "u",
			Ordinal:  ord,
			Key:      key,
			OldValue: val,
			NewValue: value,
		}
	} else {
		delta = &StateDelta{
			Op:       "c",
			Ordinal:  ord,
			Key:      key,
			OldValue: nil,
			NewValue: value,
		}
	}
	b.applyDelta(delta)
	b.Deltas = append(b.Deltas, *delta)
}

func (b *Builder) applyDelta(delta *StateDelta) {
	switch delta.Op {
	case "u", "c":
		b.KV[delta.Key] = delta.NewValue
	case "d":
		delete(b.KV, delta.Key)
	}
}

func (b *Builder) Flush() {
	for _, delta := range b.Deltas {
		b.applyDelta(&delta)
	}
	b.Deltas = nil
	b.lastOrdinal = 0
}

// StoreBlock flushes the block's deltas and writes a checkpoint when blockNum
// crossed into a new checkpoint interval.
func (b *Builder) StoreBlock(ctx context.Context, blockNum uint64) error {
	b.Flush()

	if b.io == nil {
		return nil
	}

	checkpoint := b.checkpointOf(blockNum)
	if checkpoint <= b.lastCheckpoint {
		return nil
	}

	if err := b.WriteState(ctx, blockNum); err != nil {
		return err
	}
	b.lastCheckpoint = checkpoint
	return nil
}

func (b *Builder) ReadState(ctx context.Context, blockNum uint64) error {
	data, err := b.io.ReadState(ctx, b.checkpointOf(blockNum))
	if err != nil {
		return err
	}

	kv := map[string][]byte{}
	if err = json.Unmarshal(data, &kv); err != nil {
		return fmt.Errorf("unmarshalling kv for %s at block %d: %w", b.Name, blockNum, err)
	}

	b.KV = kv
	zlog.Info("loaded kv state", zap.String("name", b.Name), zap.Uint64("block_num", blockNum), zap.Int("entries", len(b.KV)))

	return nil
}

func (b *Builder) WriteState(ctx context.Context, blockNum uint64) error {
	content, err := json.Marshal(b.KV)
	if err != nil {
		return fmt.Errorf("marshal kv state: %w", err)
	}

	if err = b.io.WriteState(ctx, content, b.checkpointOf(blockNum)); err != nil {
		return fmt.Errorf("writing %s kv at block %d: %w", b.Name, blockNum, err)
	}

	zlog.Debug("wrote kv state", zap.String("name", b.Name), zap.Uint64("block_num", blockNum), zap.Int("entries", len(b.KV)))
	return nil
}
