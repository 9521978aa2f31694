package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/streamingfast/defi-subgraphs/entity"
)

var ErrNotFound = errors.New("not found")

// Updates holds the entities written while processing a block, by table name
// then ID. A nil entity removes the record.
type Updates map[string]map[string]entity.Entity

type Store interface {
	// BatchSave atomically applies updates and moves the cursor to the block.
	BatchSave(ctx context.Context, blockNum uint64, updates Updates, cursor *entity.Cursor) error

	// Load fills ent, whose ID must be set, and flags it as existing when the
	// record was found. A missing record is not an error.
	Load(ctx context.Context, id string, ent entity.Entity) error

	// LoadCursor returns ErrNotFound when nothing was ever saved.
	LoadCursor(ctx context.Context) (*entity.Cursor, error)

	Close() error
}

// CursorID is the ID of the single cursor row of a store.
const CursorID = "head"

// Each calls f over updates in table then ID order, so every backend writes a
// block in the same deterministic order.
func (u Updates) Each(f func(table, id string, ent entity.Entity) error) error {
	tables := make([]string, 0, len(u))
	for table := range u {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		ids := make([]string, 0, len(u[table]))
		for id := range u[table] {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if err := f(table, id, u[table][id]); err != nil {
				return fmt.Errorf("%s %s: %w", table, id, err)
			}
		}
	}
	return nil
}

func (u Updates) Count() (count int) {
	for _, table := range u {
		count += len(table)
	}
	return
}
