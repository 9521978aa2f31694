package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/storage"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	table_name TEXT   NOT NULL,
	id         TEXT   NOT NULL,
	data       JSONB  NOT NULL,
	block_num  BIGINT NOT NULL,
	PRIMARY KEY (table_name, id)
);

CREATE TABLE IF NOT EXISTS cursors (
	id         TEXT   PRIMARY KEY,
	block_num  BIGINT NOT NULL,
	block_hash TEXT   NOT NULL,
	timestamp  BIGINT NOT NULL
);
`

// Store keeps every entity as a JSONB document in a single table. Each block
// is written in one transaction together with the cursor.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	zlog.Info("connected to postgres", zap.String("database", config.ConnConfig.Database))
	return &Store{pool: pool}, nil
}

func (s *Store) Load(ctx context.Context, id string, ent entity.Entity) error {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM entities WHERE table_name = $1 AND id = $2`, ent.TableName(), id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		ent.SetExists(false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading %s %s: %w", ent.TableName(), id, err)
	}

	if err := json.Unmarshal(data, ent); err != nil {
		return fmt.Errorf("decoding %s %s: %w", ent.TableName(), id, err)
	}
	ent.SetID(id)
	ent.SetExists(true)
	return nil
}

func (s *Store) BatchSave(ctx context.Context, blockNum uint64, updates storage.Updates, cursor *entity.Cursor) error {
	batch := &pgx.Batch{}

	err := updates.Each(func(table, id string, ent entity.Entity) error {
		if ent == nil {
			batch.Queue(`DELETE FROM entities WHERE table_name = $1 AND id = $2`, table, id)
			return nil
		}

		data, err := json.Marshal(ent)
		if err != nil {
			return fmt.Errorf("encoding: %w", err)
		}
		batch.Queue(`
			INSERT INTO entities (table_name, id, data, block_num)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (table_name, id) DO UPDATE
			SET data = EXCLUDED.data,
			    block_num = EXCLUDED.block_num
		`, table, id, data, int64(blockNum))
		return nil
	})
	if err != nil {
		return err
	}

	if cursor != nil {
		batch.Queue(`
			INSERT INTO cursors (id, block_num, block_hash, timestamp)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET block_num = EXCLUDED.block_num,
			    block_hash = EXCLUDED.block_hash,
			    timestamp = EXCLUDED.timestamp
		`, storage.CursorID, int64(cursor.BlockNumber), cursor.BlockHash, cursor.Timestamp)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin block %d: %w", blockNum, err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("writing block %d: %w", blockNum, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit block %d: %w", blockNum, err)
	}
	return nil
}

func (s *Store) LoadCursor(ctx context.Context) (*entity.Cursor, error) {
	cursor := entity.NewCursor(storage.CursorID)

	var blockNum int64
	err := s.pool.QueryRow(ctx, `SELECT block_num, block_hash, timestamp FROM cursors WHERE id = $1`, storage.CursorID).
		Scan(&blockNum, &cursor.BlockHash, &cursor.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading cursor: %w", err)
	}

	cursor.BlockNumber = uint64(blockNum)
	cursor.SetExists(true)
	return cursor, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
