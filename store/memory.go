package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory keeps collections in process. Records are copied on every read and
// write so callers never share maps with the store.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string]Document
	order map[string][]string // insertion order per collection
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		colls: make(map[string]map[string]Document),
		order: make(map[string][]string),
	}
}

func (m *Memory) GetAll(ctx context.Context, coll string) ([]Document, error) {
	return m.Query(ctx, coll, Query{})
}

func (m *Memory) GetByID(ctx context.Context, coll, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.colls[coll][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc)
}

func (m *Memory) Query(ctx context.Context, coll string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Document, 0, len(m.colls[coll]))
	for _, id := range m.order[coll] {
		doc := m.colls[coll][id]
		if q.Field != "" && compare(doc[q.Field], q.Equals) != 0 {
			continue
		}
		c, err := cloneDocument(doc)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		out = append(out, c)
	}
	m.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i][q.OrderBy], out[j][q.OrderBy]
			// missing values always sort last
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			if q.Descending {
				return compare(a, b) > 0
			}
			return compare(a, b) < 0
		})
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Add(ctx context.Context, coll string, v any) (string, error) {
	doc, err := ToDocument(v)
	if err != nil {
		return "", err
	}
	id := IDOf(doc)
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	return id, m.Set(ctx, coll, id, doc)
}

func (m *Memory) Set(ctx context.Context, coll, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := ToDocument(v)
	if err != nil {
		return err
	}
	doc["_id"] = id

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.colls[coll] == nil {
		m.colls[coll] = make(map[string]Document)
	}
	if _, exists := m.colls[coll][id]; !exists {
		m.order[coll] = append(m.order[coll], id)
	}
	m.colls[coll][id] = doc
	return nil
}

func (m *Memory) Update(ctx context.Context, coll, id string, fields bson.M) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(fields) == 0 {
		return ErrNoFields
	}
	patch, err := cloneDocument(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.colls[coll][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		doc[k] = v
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, coll, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.colls[coll][id]; !ok {
		return ErrNotFound
	}
	delete(m.colls[coll], id)
	ids := m.order[coll]
	for i, v := range ids {
		if v == id {
			m.order[coll] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// compare orders the value kinds that survive a bson round trip. Values of
// different kinds compare by kind.
func compare(a, b any) int {
	ka, va := sortKey(a)
	kb, vb := sortKey(b)
	if ka != kb {
		return ka - kb
	}
	switch x := va.(type) {
	case float64:
		y := vb.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		y := vb.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := vb.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	}
	return 0
}

func sortKey(v any) (int, any) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return 1, float64(x)
	case int32:
		return 1, float64(x)
	case int64:
		return 1, float64(x)
	case float64:
		return 1, x
	case string:
		return 2, x
	case bool:
		return 3, x
	case primitive.DateTime:
		return 4, float64(x)
	case time.Time:
		return 4, float64(x.UnixMilli())
	default:
		return 5, nil
	}
}
