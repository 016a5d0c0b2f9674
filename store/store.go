// Package store is a small document-store abstraction over the collections
// the console reads and writes. MongoDB backs it in production; the in-memory
// implementation serves tests and local runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	Users      = "users"
	NGOs       = "ngo_profiles"
	Volunteers = "volunteers"
	Events     = "events"
	Admins     = "admin_users"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrNoFields = errors.New("no fields to update")
)

// Document is a raw record. The "_id" key holds the string id.
type Document = bson.M

// Query filters a collection on a single field and optionally orders it.
type Query struct {
	Field      string
	Equals     any
	OrderBy    string
	Descending bool
	Limit      int64
}

type Store interface {
	GetAll(ctx context.Context, coll string) ([]Document, error)
	GetByID(ctx context.Context, coll, id string) (Document, error)
	Query(ctx context.Context, coll string, q Query) ([]Document, error)
	// Add inserts doc and returns its id. A new id is generated when doc has none.
	Add(ctx context.Context, coll string, doc any) (string, error)
	// Set replaces or creates the record with the given id.
	Set(ctx context.Context, coll, id string, doc any) error
	// Update applies a partial update. Missing records yield ErrNotFound.
	Update(ctx context.Context, coll, id string, fields bson.M) error
	Delete(ctx context.Context, coll, id string) error
	Ping(ctx context.Context) error
}

// ToDocument converts a struct or map into a Document.
func ToDocument(v any) (Document, error) {
	if d, ok := v.(Document); ok {
		return cloneDocument(d)
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc Document
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// Decode copies a Document into v.
func Decode(doc Document, v any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, v)
}

// DecodeAll decodes every document into T. Documents that fail to decode are
// reported to skip and left out of the result.
func DecodeAll[T any](docs []Document, skip func(id any, err error)) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := Decode(d, &v); err != nil {
			if skip != nil {
				skip(d["_id"], err)
			}
			continue
		}
		out = append(out, v)
	}
	return out
}

// IDOf returns the string id of a document.
func IDOf(doc Document) string {
	switch id := doc["_id"].(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	default:
		return ""
	}
}

func cloneDocument(d Document) (Document, error) {
	raw, err := bson.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var out Document
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return out, nil
}
