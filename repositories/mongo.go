package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// castObjectIDs rewrites string values under "_id" into ObjectIDs so that
// filters written against the JSON representation match stored documents.
// Covers plain equality and the $in/$nin/$ne/$eq operators.
func castObjectIDs(where bson.M) bson.M {
	if where == nil {
		return bson.M{}
	}
	out := make(bson.M, len(where))
	for k, v := range where {
		if k == "_id" {
			out[k] = castIDValue(v)
			continue
		}
		out[k] = v
	}
	return out
}

func castIDValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if oid, err := primitive.ObjectIDFromHex(val); err == nil {
			return oid
		}
		return val
	case bson.M:
		out := make(bson.M, len(val))
		for op, arg := range val {
			out[op] = castIDOperand(op, arg)
		}
		return out
	case bson.D:
		out := make(bson.D, 0, len(val))
		for _, e := range val {
			out = append(out, bson.E{Key: e.Key, Value: castIDOperand(e.Key, e.Value)})
		}
		return out
	}
	return v
}

func castIDOperand(op string, arg interface{}) interface{} {
	switch op {
	case "$eq", "$ne":
		return castIDValue(arg)
	case "$in", "$nin":
		var items []interface{}
		switch list := arg.(type) {
		case bson.A:
			items = list
		case []interface{}:
			items = list
		default:
			return arg
		}
		cast := make(bson.A, 0, len(items))
		for _, item := range items {
			cast = append(cast, castIDValue(item))
		}
		return cast
	}
	return arg
}

func findOptions(q ListQuery) *options.FindOptions {
	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if len(q.Select) > 0 {
		opts.SetProjection(q.Select)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

func listDocuments(ctx context.Context, collection *mongo.Collection, q ListQuery) ([]bson.M, error) {
	cursor, err := collection.Find(ctx, castObjectIDs(q.Where), findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection.Name(), err)
	}
	return docs, nil
}

func countDocuments(ctx context.Context, collection *mongo.Collection, q ListQuery) (int64, error) {
	opts := options.Count()
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	n, err := collection.CountDocuments(ctx, castObjectIDs(q.Where), opts)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection.Name(), err)
	}
	return n, nil
}

func findProjected(ctx context.Context, collection *mongo.Collection, id string, projection bson.M) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	var doc bson.M
	err = collection.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch from %s: %w", collection.Name(), err)
	}
	return doc, nil
}
