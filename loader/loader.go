package loader

import (
	"context"
	"fmt"
	"reflect"

	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/metrics"
	"github.com/streamingfast/defi-subgraphs/storage"
	"go.uber.org/zap"
)

// Loader caches the entities touched while processing a block. Reads go
// through pending updates first, then the entities already read from the
// store during this block, then the store itself.
type Loader struct {
	store    storage.Store
	registry *entity.Registry

	// cached entities
	current map[string]map[string]entity.Entity
	updates storage.Updates
}

func New(store storage.Store, registry *entity.Registry) *Loader {
	l := &Loader{
		store:    store,
		registry: registry,
	}
	l.reset()
	return l
}

func (l *Loader) reset() {
	l.current = make(map[string]map[string]entity.Entity)
	l.updates = make(storage.Updates)
}

// Save stages ent for the next flush and marks it existing. Later loads in
// the same block see the saved copy.
func (l *Loader) Save(ent entity.Entity) error {
	if ent.GetID() == "" {
		return fmt.Errorf("saving %s: id not set", ent.TableName())
	}
	tableName := ent.TableName()

	updateTable, found := l.updates[tableName]
	if !found {
		updateTable = make(map[string]entity.Entity)
		l.updates[tableName] = updateTable
	}

	ent.SetExists(true)
	clone, err := l.clone(ent)
	if err != nil {
		return err
	}
	updateTable[ent.GetID()] = clone

	return nil
}

// Remove stages the deletion of the entity with the given ID.
func (l *Loader) Remove(tableName, id string) {
	updateTable, found := l.updates[tableName]
	if !found {
		updateTable = make(map[string]entity.Entity)
		l.updates[tableName] = updateTable
	}
	updateTable[id] = nil
}

// Load fills ent, whose ID must be set. ent.Exists() tells whether it was
// found.
func (l *Loader) Load(ctx context.Context, ent entity.Entity) error {
	tableName := ent.TableName()
	id := ent.GetID()

	if id == "" {
		return fmt.Errorf("id was not set before calling load")
	}

	// First check from updates
	if cached, found := l.updates[tableName][id]; found {
		if cached == nil {
			ent.SetExists(false)
			return nil
		}
		copyInto(ent, cached)
		return nil
	}

	currentTable, found := l.current[tableName]
	if !found {
		currentTable = make(map[string]entity.Entity)
		l.current[tableName] = currentTable
	}

	if cached, found := currentTable[id]; found {
		if cached == nil {
			ent.SetExists(false)
			return nil
		}
		copyInto(ent, cached)
		return nil
	}

	// Load from the store otherwise
	if err := l.store.Load(ctx, id, ent); err != nil {
		return fmt.Errorf("failed loading entity: %w", err)
	}

	if ent.Exists() {
		clone, err := l.clone(ent)
		if err != nil {
			return err
		}
		currentTable[id] = clone
	} else {
		currentTable[id] = nil
	}

	return nil
}

// Flush writes every staged update along with the cursor in one batch and
// starts a fresh block.
func (l *Loader) Flush(ctx context.Context, cursor *entity.Cursor) error {
	if cursor.GetID() == "" {
		cursor.SetID(storage.CursorID)
	}

	if err := l.store.BatchSave(ctx, cursor.BlockNumber, l.updates, cursor); err != nil {
		return fmt.Errorf("flushing block %d: %w", cursor.BlockNumber, err)
	}

	for tableName, table := range l.updates {
		metrics.EntitiesFlushed.WithLabelValues(tableName).Add(float64(len(table)))
	}
	zlog.Debug("flushed block", zap.Uint64("block_num", cursor.BlockNumber), zap.Int("entities", l.updates.Count()))

	l.reset()
	return nil
}

func (l *Loader) clone(ent entity.Entity) (entity.Entity, error) {
	reflectType, ok := l.registry.GetType(ent.TableName())
	if !ok {
		return nil, fmt.Errorf("unable to retrieve entity type for table %q", ent.TableName())
	}
	clone := reflect.New(reflectType).Interface().(entity.Entity)
	copyInto(clone, ent)
	return clone, nil
}

// copyInto shallow copies src into dst, both pointers to the same struct type.
// Slices are shared, callers replace them rather than mutate in place.
func copyInto(dst, src entity.Entity) {
	reflect.ValueOf(dst).Elem().Set(reflect.ValueOf(src).Elem())
}
