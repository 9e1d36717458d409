package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
)

type markDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID string             `bson:"studentId"`
	BranchID  string             `bson:"branchId"`
	Subject   string             `bson:"subject"`
	ExamType  string             `bson:"examType"`
	Marks     float64            `bson:"marks"`
	MaxMarks  float64            `bson:"maxMarks"`
	Date      time.Time          `bson:"date"`
	Remarks   string             `bson:"remarks"`
	MarkedBy  string             `bson:"markedBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d markDoc) toRecord() mark.Record {
	return mark.Record{
		ID:        d.ID.Hex(),
		StudentID: d.StudentID,
		BranchID:  d.BranchID,
		Subject:   d.Subject,
		ExamType:  d.ExamType,
		Marks:     d.Marks,
		MaxMarks:  d.MaxMarks,
		Date:      d.Date.UTC(),
		Remarks:   d.Remarks,
		MarkedBy:  d.MarkedBy,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

var markSort = bson.D{
	{Key: "date", Value: -1},
	{Key: "subject", Value: 1},
	{Key: "examType", Value: 1},
	{Key: "studentId", Value: 1},
}

type markRepository struct {
	repo
}

var _ mark.Repository = (*markRepository)(nil)

func NewMarkRepository(db *mongo.Database, conf *core.Config) mark.Repository {
	return &markRepository{repo: newRepo(db, MarksColl, conf)}
}

func (r *markRepository) Upsert(ctx context.Context, rec mark.Record) (mark.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rec.Date = core.Day(rec.Date)
	filter := bson.M{"studentId": rec.StudentID, "subject": rec.Subject, "examType": rec.ExamType, "date": rec.Date}
	update := bson.M{
		"$set": bson.M{
			"branchId":  rec.BranchID,
			"marks":     rec.Marks,
			"maxMarks":  rec.MaxMarks,
			"remarks":   rec.Remarks,
			"markedBy":  rec.MarkedBy,
			"updatedAt": rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": rec.CreatedAt},
	}

	var doc markDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, upsertAfter()).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = r.coll.FindOneAndUpdate(ctx, filter, update, upsertAfter()).Decode(&doc)
	}
	if err != nil {
		return mark.Record{}, errors.Wrap(err, "upserting mark")
	}
	return doc.toRecord(), nil
}

func (r *markRepository) ListByStudent(ctx context.Context, studentID string) ([]mark.Record, error) {
	return r.list(ctx, bson.M{"studentId": studentID})
}

func (r *markRepository) ListByBranch(ctx context.Context, branchID string, filter mark.Filter) ([]mark.Record, error) {
	query := bson.M{"branchId": branchID}
	if filter.Subject != "" {
		query["subject"] = filter.Subject
	}
	if filter.ExamType != "" {
		query["examType"] = filter.ExamType
	}
	return r.list(ctx, query)
}

func (r *markRepository) list(ctx context.Context, query bson.M) ([]mark.Record, error) {
	var docs []markDoc
	if err := r.find(ctx, query, markSort, &docs); err != nil {
		return nil, err
	}
	records := make([]mark.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}
