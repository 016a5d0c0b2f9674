package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// StringList decodes either a single string or an array of strings.
// Older records store some list fields as plain strings. Non-string values
// decode to an empty list instead of failing the whole record.
type StringList []string

func (l *StringList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = nil
	case bsontype.String:
		s := strings.TrimSpace(rv.StringValue())
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
	case bsontype.Array:
		values, err := rv.Array().Values()
		if err != nil {
			return err
		}
		out := make(StringList, 0, len(values))
		for _, v := range values {
			if s, ok := v.StringValueOK(); ok {
				out = append(out, s)
			}
		}
		*l = out
	default:
		// numbers, documents and the like carry no labels
		*l = nil
	}
	return nil
}

func (l StringList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue([]string(l))
}

// Timestamp accepts BSON datetimes, epoch milliseconds and date strings.
// Anything else decodes to the zero time rather than an error, so one bad
// date never discards the rest of a record.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}

func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

func (ts *Timestamp) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.DateTime:
		ts.Time = rv.Time().UTC()
	case bsontype.Timestamp:
		sec, _ := rv.Timestamp()
		ts.Time = time.Unix(int64(sec), 0).UTC()
	case bsontype.Int64, bsontype.Int32, bsontype.Double:
		if ms, ok := rv.AsInt64OK(); ok {
			ts.Time = time.UnixMilli(ms).UTC()
		} else {
			ts.Time = time.Time{}
		}
	case bsontype.String:
		// unparseable dates stay zero; callers treat zero as absent
		parsed, _ := ParseTime(rv.StringValue())
		ts.Time = parsed
	default:
		ts.Time = time.Time{}
	}
	return nil
}

func (ts Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(ts.Time)
}

// ParseTime tries RFC3339 first and then the plain date layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use RFC3339 or YYYY-MM-DD", s)
}
