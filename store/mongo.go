package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

var _ Store = (*Mongo)(nil)

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewMongo(client *mongo.Client, dbName string, timeout time.Duration) *Mongo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Mongo{client: client, db: client.Database(dbName), timeout: timeout}
}

// EnsureIndexes creates the indexes the console queries rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		Users:  {{Keys: bson.D{{Key: "role", Value: 1}}}},
		Events: {{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		NGOs:   {{Keys: bson.D{{Key: "verificationStatus", Value: 1}}}},
		Admins: {{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for coll, models := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (m *Mongo) GetAll(ctx context.Context, coll string) ([]Document, error) {
	return m.Query(ctx, coll, Query{})
}

func (m *Mongo) GetByID(ctx context.Context, coll, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc Document
	err := m.db.Collection(coll).FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s/%s: %w", coll, id, err)
	}
	normalizeID(doc)
	return doc, nil
}

func (m *Mongo) Query(ctx context.Context, coll string, q Query) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*m.timeout)
	defer cancel()

	filter := bson.M{}
	if q.Field != "" {
		filter[q.Field] = q.Equals
	}
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := m.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll, err)
	}
	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll, err)
	}
	for _, d := range docs {
		normalizeID(d)
	}
	return docs, nil
}

func (m *Mongo) Add(ctx context.Context, coll string, v any) (string, error) {
	doc, err := ToDocument(v)
	if err != nil {
		return "", err
	}
	id := IDOf(doc)
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	doc["_id"] = id

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, err := m.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert %s: %w", coll, err)
	}
	return id, nil
}

func (m *Mongo) Set(ctx context.Context, coll, id string, v any) error {
	doc, err := ToDocument(v)
	if err != nil {
		return err
	}
	doc["_id"] = id

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	_, err = m.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s/%s: %w", coll, id, err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, coll, id string, fields bson.M) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.db.Collection(coll).UpdateOne(ctx, idFilter(id), bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", coll, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, coll, id string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.db.Collection(coll).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", coll, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// idFilter matches records written with string ids as well as legacy
// ObjectID ids.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func normalizeID(doc Document) {
	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		doc["_id"] = oid.Hex()
	}
}
