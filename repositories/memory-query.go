package repositories

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// runQuery evaluates the subset of the Mongo query language the in-memory
// stores support: top-level equality (array fields match on membership) and
// the $eq, $ne, $in and $nin operators, multi-key sort, inclusion or
// exclusion projection, skip and limit.
func runQuery(docs []bson.M, q ListQuery) []bson.M {
	matched := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		if matchDocument(doc, q.Where) {
			matched = append(matched, doc)
		}
	}

	if len(q.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, key := range q.Sort {
				c := compareValues(matched[i][key.Key], matched[j][key.Key])
				if c == 0 {
					continue
				}
				if direction(key.Value) < 0 {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Skip > 0 {
		if q.Skip >= int64(len(matched)) {
			matched = matched[:0]
		} else {
			matched = matched[q.Skip:]
		}
	}
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}

	out := make([]bson.M, 0, len(matched))
	for _, doc := range matched {
		out = append(out, project(doc, q.Select))
	}
	return out
}

func matchDocument(doc bson.M, where bson.M) bool {
	for key, cond := range where {
		if !matchField(doc[key], cond) {
			return false
		}
	}
	return true
}

func matchField(value, cond interface{}) bool {
	ops, isOps := operators(cond)
	if !isOps {
		return equalsOrContains(value, cond)
	}
	for op, arg := range ops {
		switch op {
		case "$eq":
			if !equalsOrContains(value, arg) {
				return false
			}
		case "$ne":
			if equalsOrContains(value, arg) {
				return false
			}
		case "$in":
			if !inList(value, arg) {
				return false
			}
		case "$nin":
			if inList(value, arg) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// operators returns cond as an operator map when every key starts with '$'.
func operators(cond interface{}) (map[string]interface{}, bool) {
	ops := map[string]interface{}{}
	switch c := cond.(type) {
	case bson.M:
		for k, v := range c {
			ops[k] = v
		}
	case bson.D:
		for _, e := range c {
			ops[e.Key] = e.Value
		}
	default:
		return nil, false
	}
	if len(ops) == 0 {
		return nil, false
	}
	for k := range ops {
		if len(k) == 0 || k[0] != '$' {
			return nil, false
		}
	}
	return ops, true
}

func inList(value, arg interface{}) bool {
	for _, candidate := range asList(arg) {
		if equalsOrContains(value, candidate) {
			return true
		}
	}
	return false
}

func equalsOrContains(value, want interface{}) bool {
	if list := asList(value); list != nil {
		for _, item := range list {
			if normalize(item) == normalize(want) {
				return true
			}
		}
		return false
	}
	return normalize(value) == normalize(want)
}

func asList(v interface{}) []interface{} {
	switch l := v.(type) {
	case bson.A:
		return l
	case []interface{}:
		return l
	case []string:
		out := make([]interface{}, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}

// normalize maps stored and query values onto comparable strings: ObjectIDs
// compare by hex, numbers by value, dates by RFC 3339.
func normalize(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	}
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprint(v)
}

func compareValues(a, b interface{}) int {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	na, nb := normalize(a), normalize(b)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}

func direction(v interface{}) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	if s, ok := v.(string); ok && (s == "desc" || s == "descending") {
		return -1
	}
	return 1
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func truthy(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

// project applies a Mongo-style projection. Inclusion projections always
// keep _id unless it is explicitly excluded.
func project(doc bson.M, projection bson.M) bson.M {
	if len(projection) == 0 {
		return doc
	}

	inclusive := false
	for k, v := range projection {
		if k != "_id" && truthy(v) {
			inclusive = true
			break
		}
	}

	out := bson.M{}
	if inclusive {
		for k, v := range projection {
			if truthy(v) {
				if val, ok := doc[k]; ok {
					out[k] = val
				}
			}
		}
		if idRule, ok := projection["_id"]; !ok || truthy(idRule) {
			if id, ok := doc["_id"]; ok {
				out["_id"] = id
			}
		}
		return out
	}

	for k, v := range doc {
		if rule, ok := projection[k]; ok && !truthy(rule) {
			continue
		}
		out[k] = v
	}
	return out
}
