package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Now returns the current UTC time. All persisted timestamps go
// through this so documents compare cleanly across replicas.
func Now() time.Time {
	return time.Now().UTC()
}

// BuildFilter assembles an equality filter from alternating
// field/value pairs. Non-string keys are skipped.
func BuildFilter(pairs ...interface{}) bson.M {
	filter := bson.M{}
	for i := 0; i < len(pairs)-1; i += 2 {
		if key, ok := pairs[i].(string); ok {
			filter[key] = pairs[i+1]
		}
	}
	return filter
}

// BuildUpdate wraps a set of field assignments in a $set update.
func BuildUpdate(set bson.M) bson.M {
	return bson.M{"$set": set}
}

// BuildIncrementUpdate increments a counter field and stamps
// updatedAt. Used by the rule-code sequence allocator.
func BuildIncrementUpdate(field string, value interface{}) bson.M {
	return bson.M{
		"$inc": bson.M{field: value},
		"$set": bson.M{"updatedAt": Now()},
	}
}

// SortField names one field of a compound sort.
type SortField struct {
	Field      string
	Descending bool
}

// SortAscending sorts by a single field, ascending.
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending sorts by a single field, descending.
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// SortMultiple builds a compound sort in field order.
func SortMultiple(fields ...SortField) bson.D {
	sort := make(bson.D, 0, len(fields))
	for _, f := range fields {
		value := 1
		if f.Descending {
			value = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: value})
	}
	return sort
}
