package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
)

var attendanceColumns = []string{
	"id", "student_id", "branch_id", "subject", "date", "status", "marks", "marked_by", "created_at", "updated_at",
}

// attendanceOrder lists the newest sessions first.
var attendanceOrder = []string{"date DESC", "subject ASC", "student_id ASC"}

type attendanceRow struct {
	ID        string       `db:"id"`
	StudentID string       `db:"student_id"`
	BranchID  string       `db:"branch_id"`
	Subject   string       `db:"subject"`
	Date      time.Time    `db:"date"`
	Status    string       `db:"status"`
	Marks     null.Float64 `db:"marks"`
	MarkedBy  string       `db:"marked_by"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (row attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        row.ID,
		StudentID: row.StudentID,
		BranchID:  row.BranchID,
		Subject:   row.Subject,
		Date:      row.Date.UTC(),
		Status:    row.Status,
		Marks:     row.Marks.Ptr(),
		MarkedBy:  row.MarkedBy,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	repo
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB, conf *core.Config) attendance.Repository {
	return &attendanceRepository{repo: newRepo(db, conf)}
}

// Upsert relies on ON CONFLICT over the identity constraint, so concurrent upserts of one record serialize in postgres.
func (r *attendanceRepository) Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := psql.Insert(attendanceTable).
		Columns(attendanceColumns...).
		Values(
			newID(), rec.StudentID, rec.BranchID, rec.Subject, core.Day(rec.Date), rec.Status,
			null.Float64FromPtr(rec.Marks), rec.MarkedBy, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
		).
		Suffix("ON CONFLICT (student_id, subject, date) DO UPDATE SET " +
			"branch_id = EXCLUDED.branch_id, status = EXCLUDED.status, marks = EXCLUDED.marks, " +
			"marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at " +
			"RETURNING " + columns(attendanceColumns...))

	var row attendanceRow
	if err := r.get(ctx, q, &row, attendance.ErrNotFound); err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance")
	}
	return row.toRecord(), nil
}

func (r *attendanceRepository) UpdateStatus(ctx context.Context, sk attendance.SessionKey, studentID, status string, updatedAt time.Time) (attendance.Record, error) {
	where := sessionWhere(sk)
	where["student_id"] = studentID
	q := psql.Update(attendanceTable).
		Set("status", status).
		Set("updated_at", updatedAt.UTC()).
		Where(where).
		Suffix("RETURNING " + columns(attendanceColumns...))

	var row attendanceRow
	if err := r.get(ctx, q, &row, attendance.ErrNotFound); err != nil {
		return attendance.Record{}, err
	}
	return row.toRecord(), nil
}

func (r *attendanceRepository) DeleteSession(ctx context.Context, sk attendance.SessionKey) (int, error) {
	res, err := r.exec(ctx, psql.Delete(attendanceTable).Where(sessionWhere(sk)))
	if err != nil {
		return 0, errors.Wrap(err, "deleting attendance session")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted rows")
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]attendance.Record, error) {
	return r.list(ctx, sq.Eq{"student_id": studentID})
}

func (r *attendanceRepository) ListByBranch(ctx context.Context, branchID string, filter attendance.RecordFilter) ([]attendance.Record, error) {
	where := sq.Eq{"branch_id": branchID}
	if filter.Subject != "" {
		where["subject"] = filter.Subject
	}
	if !filter.Date.IsZero() {
		where["date"] = core.Day(filter.Date)
	}
	return r.list(ctx, where)
}

func (r *attendanceRepository) list(ctx context.Context, where sq.Eq) ([]attendance.Record, error) {
	q := psql.Select(attendanceColumns...).From(attendanceTable).Where(where).OrderBy(attendanceOrder...)
	var rows []attendanceRow
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "listing attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (r *attendanceRepository) TallyByBranch(ctx context.Context) (map[string]attendance.Tally, error) {
	var rows []struct {
		BranchID string `db:"branch_id"`
		Total    int    `db:"total"`
		Present  int    `db:"present"`
	}
	q := psql.Select("branch_id", "COUNT(*) AS total").
		Column(sq.Expr("COUNT(*) FILTER (WHERE status = ?) AS present", attendance.StatusPresent)).
		From(attendanceTable).
		GroupBy("branch_id")
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "tallying attendance")
	}
	tallies := make(map[string]attendance.Tally, len(rows))
	for _, row := range rows {
		tallies[row.BranchID] = attendance.Tally{Total: row.Total, Present: row.Present}
	}
	return tallies, nil
}

func sessionWhere(sk attendance.SessionKey) sq.Eq {
	return sq.Eq{"subject": sk.Subject, "branch_id": sk.BranchID, "date": core.Day(sk.Date)}
}
