package mongorepos

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func findOptions(sort bson.D) *options.FindOptions {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	return opts
}

// upsertAfter upserts and returns the document as saved.
func upsertAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}

func updateAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
