package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ionode-cloud/ERP-Cell/core"
	mongorepos "github.com/ionode-cloud/ERP-Cell/storage/database/mongo"
)

// OpenMongo connects to the configured MongoDB server and returns the application database.
func OpenMongo(ctx context.Context, conf *core.Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetTimeout(conf.Database.QueryTimeout())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, errors.Wrap(err, "pinging mongodb")
	}
	return client, client.Database(conf.Database.Name), nil
}

func unique(keys ...string) mongo.IndexModel {
	doc := bson.D{}
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: 1})
	}
	return mongo.IndexModel{Keys: doc, Options: options.Index().SetUnique(true)}
}

func index(keys ...string) mongo.IndexModel {
	doc := bson.D{}
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: 1})
	}
	return mongo.IndexModel{Keys: doc}
}

// EnsureIndexes creates the unique indexes the repositories rely on to keep identities unique under concurrency.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		mongorepos.UsersColl:    {unique("loginId")},
		mongorepos.BranchesColl: {unique("code")},
		mongorepos.StudentsColl: {unique("email"), unique("rollNo"), index("branchId"), index("userId")},
		mongorepos.TeachersColl: {unique("email"), unique("employeeId"), index("branchId"), index("userId")},
		mongorepos.AttendanceColl: {
			unique("studentId", "subject", "date"),
			index("branchId", "subject", "date"),
		},
		mongorepos.MarksColl: {
			unique("studentId", "subject", "examType", "date"),
			index("branchId", "subject", "examType"),
		},
		mongorepos.FeesColl: {unique("studentId"), index("branchId")},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}
