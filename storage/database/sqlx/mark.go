package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
)

var markColumns = []string{
	"id", "student_id", "branch_id", "subject", "exam_type", "marks", "max_marks", "date", "remarks", "marked_by",
	"created_at", "updated_at",
}

var markOrder = []string{"date DESC", "subject ASC", "exam_type ASC", "student_id ASC"}

type markRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	BranchID  string    `db:"branch_id"`
	Subject   string    `db:"subject"`
	ExamType  string    `db:"exam_type"`
	Marks     float64   `db:"marks"`
	MaxMarks  float64   `db:"max_marks"`
	Date      time.Time `db:"date"`
	Remarks   string    `db:"remarks"`
	MarkedBy  string    `db:"marked_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row markRow) toRecord() mark.Record {
	return mark.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		BranchID:  row.BranchID,
		Subject:   row.Subject,
		ExamType:  row.ExamType,
		Marks:     row.Marks,
		MaxMarks:  row.MaxMarks,
		Date:      row.Date.UTC(),
		Remarks:   row.Remarks,
		MarkedBy:  row.MarkedBy,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type markRepository struct {
	repo
}

var _ mark.Repository = (*markRepository)(nil)

func NewMarkRepository(db *sqlx.DB, conf *core.Config) mark.Repository {
	return &markRepository{repo: newRepo(db, conf)}
}

func (r *markRepository) Upsert(ctx context.Context, rec mark.Record) (mark.Record, error) {
	q := psql.Insert(marksTable).
		Columns(markColumns...).
		Values(
			newID(), rec.StudentID, rec.BranchID, rec.Subject, rec.ExamType, rec.Marks, rec.MaxMarks,
			core.Day(rec.Date), rec.Remarks, rec.MarkedBy, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
		).
		Suffix("ON CONFLICT (student_id, subject, exam_type, date) DO UPDATE SET " +
			"branch_id = EXCLUDED.branch_id, marks = EXCLUDED.marks, max_marks = EXCLUDED.max_marks, " +
			"remarks = EXCLUDED.remarks, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at " +
			"RETURNING " + columns(markColumns...))

	var row markRow
	if err := r.get(ctx, q, &row, mark.ErrNotFound); err != nil {
		return mark.Record{}, errors.Wrap(err, "upserting mark")
	}
	return row.toRecord(), nil
}

func (r *markRepository) ListByStudent(ctx context.Context, studentID string) ([]mark.Record, error) {
	return r.list(ctx, sq.Eq{"student_id": studentID})
}

func (r *markRepository) ListByBranch(ctx context.Context, branchID string, filter mark.Filter) ([]mark.Record, error) {
	where := sq.Eq{"branch_id": branchID}
	if filter.Subject != "" {
		where["subject"] = filter.Subject
	}
	if filter.ExamType != "" {
		where["exam_type"] = filter.ExamType
	}
	return r.list(ctx, where)
}

func (r *markRepository) list(ctx context.Context, where sq.Eq) ([]mark.Record, error) {
	q := psql.Select(markColumns...).From(marksTable).Where(where).OrderBy(markOrder...)
	var rows []markRow
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "listing marks")
	}
	records := make([]mark.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}
