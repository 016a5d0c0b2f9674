package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/phillip/ngo-admin-console/metrics"
)

// Instrumented records Prometheus latency for every call on the wrapped store.
type Instrumented struct {
	next Store
}

var _ Store = (*Instrumented)(nil)

func WithMetrics(next Store) *Instrumented {
	return &Instrumented{next: next}
}

func observe(op, coll string, start time.Time, err error) {
	// a missing record is a normal answer, not a failed call
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.ObserveStore(op, coll, start, err)
}

func (s *Instrumented) GetAll(ctx context.Context, coll string) ([]Document, error) {
	start := time.Now()
	docs, err := s.next.GetAll(ctx, coll)
	observe("get_all", coll, start, err)
	return docs, err
}

func (s *Instrumented) GetByID(ctx context.Context, coll, id string) (Document, error) {
	start := time.Now()
	doc, err := s.next.GetByID(ctx, coll, id)
	observe("get", coll, start, err)
	return doc, err
}

func (s *Instrumented) Query(ctx context.Context, coll string, q Query) ([]Document, error) {
	start := time.Now()
	docs, err := s.next.Query(ctx, coll, q)
	observe("query", coll, start, err)
	return docs, err
}

func (s *Instrumented) Add(ctx context.Context, coll string, doc any) (string, error) {
	start := time.Now()
	id, err := s.next.Add(ctx, coll, doc)
	observe("add", coll, start, err)
	return id, err
}

func (s *Instrumented) Set(ctx context.Context, coll, id string, doc any) error {
	start := time.Now()
	err := s.next.Set(ctx, coll, id, doc)
	observe("set", coll, start, err)
	return err
}

func (s *Instrumented) Update(ctx context.Context, coll, id string, fields bson.M) error {
	start := time.Now()
	err := s.next.Update(ctx, coll, id, fields)
	observe("update", coll, start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, coll, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, coll, id)
	observe("delete", coll, start, err)
	return err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
