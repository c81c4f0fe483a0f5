package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store defines the document store reads the report pipeline needs
type Store interface {
	// FetchByTimeRange returns rows whose field lies in [from, to]
	FetchByTimeRange(ctx context.Context, collection, field string, from, to time.Time) ([]Record, error)
	// FetchAll returns every row of a collection
	FetchAll(ctx context.Context, collection string) ([]Record, error)
	// FetchByField returns rows whose field equals value
	FetchByField(ctx context.Context, collection, field string, value any) ([]Record, error)
}

// MongoStore implements Store using MongoDB
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a new MongoDB store
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// FetchByTimeRange returns rows with from <= field <= to
func (s *MongoStore) FetchByTimeRange(ctx context.Context, collection, field string, from, to time.Time) ([]Record, error) {
	filter := RangeFilter(field, from, to)
	return s.find(ctx, collection, filter)
}

// FetchAll returns every row of a collection
func (s *MongoStore) FetchAll(ctx context.Context, collection string) ([]Record, error) {
	return s.find(ctx, collection, bson.D{})
}

// FetchByField returns rows whose field equals value
func (s *MongoStore) FetchByField(ctx context.Context, collection, field string, value any) ([]Record, error) {
	return s.find(ctx, collection, bson.D{{Key: field, Value: value}})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.D) ([]Record, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, RecordFromDocument(doc))
	}
	return records, nil
}

// RangeFilter builds an inclusive range filter on field
func RangeFilter(field string, from, to time.Time) bson.D {
	return bson.D{{Key: field, Value: bson.D{
		{Key: "$gte", Value: from},
		{Key: "$lte", Value: to},
	}}}
}

// RecordFromDocument converts a decoded document into a Record, keeping
// field order. _id becomes "id" and BSON dates become TimeInstant.
func RecordFromDocument(doc bson.D) Record {
	rec := Record{values: make(map[string]any, len(doc))}
	for _, elem := range doc {
		key := elem.Key
		if key == "_id" {
			key = "id"
		}
		rec.Set(key, fromBSON(elem.Value))
	}
	return rec
}

func fromBSON(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return TimeInstant{Seconds: float64(val) / 1000}
	case primitive.Timestamp:
		return TimeInstant{Seconds: float64(val.T)}
	case time.Time:
		return NewTimeInstant(val)
	case primitive.Decimal128:
		if f, err := strconv.ParseFloat(val.String(), 64); err == nil {
			return f
		}
		return val.String()
	case primitive.Null, primitive.Undefined:
		return nil
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = fromBSON(e)
		}
		return m
	case primitive.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = fromBSON(e)
		}
		return out
	default:
		return val
	}
}
