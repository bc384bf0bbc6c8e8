package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoBackend keeps one document per key. Batches run inside a session
// transaction, which requires a replica set.
type MongoBackend struct {
	Client *mongo.Client
	KV     *mongo.Collection
	logger *zap.Logger
}

type kvDocument struct {
	ID    string `bson:"_id"`
	Value string `bson:"v"`
}

func NewMongoBackend(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoBackend, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to MongoDB", zap.String("database", database))
	return &MongoBackend{
		Client: client,
		KV:     client.Database(database).Collection("kv"),
		logger: logger,
	}, nil
}

func (m *MongoBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	var doc kvDocument
	err := m.KV.FindOne(ctx, bson.M{"_id": hex.EncodeToString(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %x: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (m *MongoBackend) Scan(ctx context.Context, prefix []byte, fn ScanFunc) error {
	lower := hex.EncodeToString(prefix)
	filter := bson.M{"_id": bson.M{"$gte": lower, "$lt": lower + "g"}}
	cursor, err := m.KV.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("scan %x: %w", prefix, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc kvDocument
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		key, err := hex.DecodeString(doc.ID)
		if err != nil {
			return fmt.Errorf("corrupt key %q: %w", doc.ID, err)
		}
		if err := fn(key, []byte(doc.Value)); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (m *MongoBackend) Apply(ctx context.Context, ops []Op) error {
	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		id := hex.EncodeToString(op.Key)
		if op.Delete {
			models = append(models, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
			continue
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(kvDocument{ID: id, Value: string(op.Value)}).
			SetUpsert(true))
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return m.KV.BulkWrite(sc, models, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

func (m *MongoBackend) Close(ctx context.Context) error {
	m.logger.Info("Disconnecting from MongoDB")
	return m.Client.Disconnect(ctx)
}
