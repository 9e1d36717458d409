package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
)

type attendanceDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID string             `bson:"studentId"`
	BranchID  string             `bson:"branchId"`
	Subject   string             `bson:"subject"`
	Date      time.Time          `bson:"date"`
	Status    string             `bson:"status"`
	Marks     *float64           `bson:"marks"`
	MarkedBy  string             `bson:"markedBy,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d attendanceDoc) toRecord() attendance.Record {
	return attendance.Record{
		ID:        d.ID.Hex(),
		StudentID: d.StudentID,
		BranchID:  d.BranchID,
		Subject:   d.Subject,
		Date:      d.Date.UTC(),
		Status:    d.Status,
		Marks:     d.Marks,
		MarkedBy:  d.MarkedBy,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// attendanceSort lists the newest sessions first.
var attendanceSort = bson.D{{Key: "date", Value: -1}, {Key: "subject", Value: 1}, {Key: "studentId", Value: 1}}

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *mongo.Database, conf *core.Config) attendance.Repository {
	return &attendanceRepository{repo: newRepo(db, AttendanceColl, conf)}
}

func (r *attendanceRepository) Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rec.Date = core.Day(rec.Date)
	filter := bson.M{"studentId": rec.StudentID, "subject": rec.Subject, "date": rec.Date}
	update := bson.M{
		"$set": bson.M{
			"branchId":  rec.BranchID,
			"status":    rec.Status,
			"marks":     rec.Marks,
			"markedBy":  rec.MarkedBy,
			"updatedAt": rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": rec.CreatedAt},
	}

	var doc attendanceDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, upsertAfter()).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// two concurrent upserts both inserted: the loser now finds the winner's document
		err = r.coll.FindOneAndUpdate(ctx, filter, update, upsertAfter()).Decode(&doc)
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance")
	}
	return doc.toRecord(), nil
}

func (r *attendanceRepository) UpdateStatus(ctx context.Context, sk attendance.SessionKey, studentID, status string, updatedAt time.Time) (attendance.Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := sessionFilter(sk)
	filter["studentId"] = studentID
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": updatedAt}}

	var doc attendanceDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, updateAfter()).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance status")
	}
	return doc.toRecord(), nil
}

func (r *attendanceRepository) DeleteSession(ctx context.Context, sk attendance.SessionKey) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, sessionFilter(sk))
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance session")
	}
	return int(res.DeletedCount), nil
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	return r.list(ctx, bson.M{"studentId": studentID})
}

func (r *attendanceRepository) ListByBranch(ctx context.Context, branchID string, filter attendance.RecordFilter) ([]attendance.Record, error) {
	query := bson.M{"branchId": branchID}
	if filter.Subject != "" {
		query["subject"] = filter.Subject
	}
	if !filter.Date.IsZero() {
		query["date"] = core.Day(filter.Date)
	}
	return r.list(ctx, query)
}

func (r *attendanceRepository) list(ctx context.Context, query bson.M) ([]attendance.Record, error) {
	var docs []attendanceDoc
	if err := r.find(ctx, query, attendanceSort, &docs); err != nil {
		return nil, err
	}
	records := make([]attendance.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

func (r *attendanceRepository) TallyByBranch(ctx context.Context) (map[string]attendance.Tally, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	present := bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", attendance.StatusPresent}}, 1, 0}}
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     "$branchId",
			"total":   bson.M{"$sum": 1},
			"present": bson.M{"$sum": present},
		}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "tallying attendance")
	}
	var rows []struct {
		BranchID string `bson:"_id"`
		Total    int    `bson:"total"`
		Present  int    `bson:"present"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "decoding tallies")
	}
	tallies := make(map[string]attendance.Tally, len(rows))
	for _, row := range rows {
		tallies[row.BranchID] = attendance.Tally{Total: row.Total, Present: row.Present}
	}
	return tallies, nil
}

func sessionFilter(sk attendance.SessionKey) bson.M {
	return bson.M{"subject": sk.Subject, "branchId": sk.BranchID, "date": core.Day(sk.Date)}
}
