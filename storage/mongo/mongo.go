package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/streamingfast/defi-subgraphs/entity"
	"github.com/streamingfast/defi-subgraphs/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const cursorCollection = "cursors"

// Store keeps one collection per entity table, documents keyed by entity ID.
// A block is written collection by collection with the cursor last, so a
// crash mid-block replays that block on restart.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
}

var _ storage.Store = (*Store)(nil)

func New(ctx context.Context, uri, databaseName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	zlog.Info("connected to mongo", zap.String("database", databaseName))
	return &Store{client: client, database: client.Database(databaseName)}, nil
}

func (s *Store) Load(ctx context.Context, id string, ent entity.Entity) error {
	found, err := s.loadInto(ctx, ent.TableName(), id, ent)
	if err != nil {
		return fmt.Errorf("loading %s %s: %w", ent.TableName(), id, err)
	}
	if found {
		ent.SetID(id)
	}
	ent.SetExists(found)
	return nil
}

func (s *Store) loadInto(ctx context.Context, collection, id string, out interface{}) (bool, error) {
	raw, err := s.database.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return false, fmt.Errorf("converting document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decoding document: %w", err)
	}
	return true, nil
}

func (s *Store) BatchSave(ctx context.Context, blockNum uint64, updates storage.Updates, cursor *entity.Cursor) error {
	models := map[string][]mongo.WriteModel{}
	var tables []string

	err := updates.Each(func(table, id string, ent entity.Entity) error {
		if _, found := models[table]; !found {
			tables = append(tables, table)
		}

		if ent == nil {
			models[table] = append(models[table], mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
			return nil
		}

		doc, err := toDocument(id, ent)
		if err != nil {
			return err
		}
		models[table] = append(models[table], mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": id}).SetReplacement(doc).SetUpsert(true))
		return nil
	})
	if err != nil {
		return err
	}

	for _, table := range tables {
		if _, err := s.database.Collection(table).BulkWrite(ctx, models[table], options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("writing %s at block %d: %w", table, blockNum, err)
		}
	}

	if cursor != nil {
		doc, err := toDocument(storage.CursorID, cursor)
		if err != nil {
			return err
		}
		_, err = s.database.Collection(cursorCollection).ReplaceOne(ctx, bson.M{"_id": storage.CursorID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("writing cursor at block %d: %w", blockNum, err)
		}
	}
	return nil
}

func (s *Store) LoadCursor(ctx context.Context) (*entity.Cursor, error) {
	cursor := entity.NewCursor(storage.CursorID)
	found, err := s.loadInto(ctx, cursorCollection, storage.CursorID, cursor)
	if err != nil {
		return nil, fmt.Errorf("loading cursor: %w", err)
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	cursor.SetExists(true)
	return cursor, nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func toDocument(id string, ent interface{}) (bson.D, error) {
	data, err := json.Marshal(ent)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("converting to document: %w", err)
	}
	return append(bson.D{{Key: "_id", Value: id}}, doc...), nil
}
