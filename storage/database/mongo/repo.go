// Package mongorepos implements the repositories on MongoDB.
// Identity tuples are backed by unique indexes (see database.EnsureIndexes) and every write is a single atomic call.
package mongorepos

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// Collections
const (
	UsersColl      = "users"
	BranchesColl   = "branches"
	StudentsColl   = "students"
	TeachersColl   = "teachers"
	AttendanceColl = "attendances"
	MarksColl      = "marks"
	FeesColl       = "fees"
)

type repo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newRepo(db *mongo.Database, coll string, conf *core.Config) repo {
	return repo{coll: db.Collection(coll), timeout: conf.Database.QueryTimeout()}
}

func (r repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// findOne decodes the first document matching filter; notFound is returned when there is none.
func (r repo) findOne(ctx context.Context, filter interface{}, dst interface{}, notFound error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.coll.FindOne(ctx, filter).Decode(dst)
	if err == mongo.ErrNoDocuments {
		return notFound
	}
	return errors.Wrap(err, "finding document")
}

func (r repo) find(ctx context.Context, filter interface{}, sort bson.D, dst interface{}) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := findOptions(sort)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	return errors.Wrap(cur.All(ctx, dst), "decoding documents")
}

// countByBranch counts the active documents per branchId.
func (r repo) countByBranch(ctx context.Context) (map[string]int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isActive": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$branchId", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "counting by branch")
	}
	var rows []struct {
		BranchID string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding counts")
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.BranchID] = row.Count
	}
	return counts, nil
}

// objectID parses a hex id. Invalid ids yield NilObjectID, which matches no document.
func objectID(id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

// dupKey reports which unique index a duplicate key error violated, "" if err is not one.
func dupKey(err error, fields ...string) string {
	if !mongo.IsDuplicateKeyError(err) {
		return ""
	}
	msg := err.Error()
	for _, fld := range fields {
		if strings.Contains(msg, fld) {
			return fld
		}
	}
	return "_"
}

// nameRegex matches names containing s, case-insensitively.
func nameRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// sortBy maps orderings on known fields to a sort document, newest _id last as tie-breaker.
func sortBy(orderings []core.DBOrdering, fields map[string]bool) bson.D {
	sort := bson.D{}
	for _, ord := range orderings {
		if !fields[ord.Field] {
			continue
		}
		dir := -1
		if ord.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: ord.Field, Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}
