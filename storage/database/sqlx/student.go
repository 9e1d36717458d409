package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/student"
)

var studentColumns = []string{
	"id", "name", "email", "phone", "roll_no", "admission_no", "branch_id", "semester", "academic_year",
	"gender", "dob", "address", "guardian_name", "guardian_phone", "subjects", "user_id", "is_active",
	"created_at", "updated_at",
}

var studentOrderColumns = map[string]string{
	"name":      "name",
	"rollNo":    "roll_no",
	"semester":  "semester",
	"createdAt": "created_at",
}

type studentRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	RollNo        string         `db:"roll_no"`
	AdmissionNo   string         `db:"admission_no"`
	BranchID      string         `db:"branch_id"`
	Semester      int            `db:"semester"`
	AcademicYear  string         `db:"academic_year"`
	Gender        string         `db:"gender"`
	DOB           null.Time      `db:"dob"`
	Address       string         `db:"address"`
	GuardianName  string         `db:"guardian_name"`
	GuardianPhone string         `db:"guardian_phone"`
	Subjects      pq.StringArray `db:"subjects"`
	UserID        string         `db:"user_id"`
	IsActive      bool           `db:"is_active"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func newStudentRow(s student.Student) studentRow {
	subjects := pq.StringArray(s.Subjects)
	if subjects == nil {
		subjects = pq.StringArray{}
	}
	return studentRow{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		Phone:         s.Phone,
		RollNo:        s.RollNo,
		AdmissionNo:   s.AdmissionNo,
		BranchID:      s.BranchID,
		Semester:      s.Semester,
		AcademicYear:  s.AcademicYear,
		Gender:        s.Gender,
		DOB:           null.TimeFromPtr(s.DOB),
		Address:       s.Address,
		GuardianName:  s.GuardianName,
		GuardianPhone: s.GuardianPhone,
		Subjects:      subjects,
		UserID:        s.UserID,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
}

func (row studentRow) values() []interface{} {
	return []interface{}{
		row.ID, row.Name, row.Email, row.Phone, row.RollNo, row.AdmissionNo, row.BranchID, row.Semester, row.AcademicYear,
		row.Gender, row.DOB, row.Address, row.GuardianName, row.GuardianPhone, row.Subjects, row.UserID, row.IsActive,
		row.CreatedAt, row.UpdatedAt,
	}
}

func (row studentRow) toStudent() student.Student {
	s := student.Student{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Phone:         row.Phone,
		RollNo:        row.RollNo,
		AdmissionNo:   row.AdmissionNo,
		BranchID:      row.BranchID,
		Semester:      row.Semester,
		AcademicYear:  row.AcademicYear,
		Gender:        row.Gender,
		Address:       row.Address,
		GuardianName:  row.GuardianName,
		GuardianPhone: row.GuardianPhone,
		Subjects:      []string(row.Subjects),
		UserID:        row.UserID,
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if row.DOB.Valid {
		dob := row.DOB.Time.UTC()
		s.DOB = &dob
	}
	if s.Subjects == nil {
		s.Subjects = []string{}
	}
	return s
}

type studentRepository struct {
	repo
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB, conf *core.Config) student.Repository {
	return &studentRepository{repo: newRepo(db, conf)}
}

func (r *studentRepository) Create(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = newID()
	row := newStudentRow(s)
	q := psql.Insert(studentsTable).Columns(studentColumns...).Values(row.values()...)
	if _, err := r.exec(ctx, q); err != nil {
		return student.Student{}, studentUniqueErr(err, "inserting student")
	}
	return row.toStudent(), nil
}

func (r *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	return r.getWhere(ctx, sq.Eq{"id": id})
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID string) (student.Student, error) {
	return r.getWhere(ctx, sq.Eq{"user_id": userID})
}

func (r *studentRepository) GetByRollNo(ctx context.Context, rollNo string) (student.Student, error) {
	return r.getWhere(ctx, sq.Eq{"roll_no": rollNo})
}

func (r *studentRepository) getWhere(ctx context.Context, where sq.Eq) (student.Student, error) {
	var row studentRow
	q := psql.Select(studentColumns...).From(studentsTable).Where(where)
	if err := r.get(ctx, q, &row, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return row.toStudent(), nil
}

func (r *studentRepository) Query(ctx context.Context, filter student.QueryFilter, orderings []core.DBOrdering) ([]student.Student, error) {
	q := psql.Select(studentColumns...).From(studentsTable).OrderBy(orderBy(orderings, studentOrderColumns)...)
	if !filter.IncludeInactive {
		q = q.Where(sq.Eq{"is_active": true})
	}
	if filter.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": filter.BranchID})
	}
	if filter.Search != "" {
		q = q.Where(sq.ILike{"name": "%" + escapeLike(filter.Search) + "%"})
	}
	if filter.IDs != nil {
		q = q.Where(sq.Eq{"id": filter.IDs})
	}

	var rows []studentRow
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (r *studentRepository) Update(ctx context.Context, s student.Student) (student.Student, error) {
	if !validID(s.ID) {
		return student.Student{}, student.ErrNotFound
	}
	row := newStudentRow(s)
	set := make(map[string]interface{}, len(studentColumns))
	for i, val := range row.values() {
		if col := studentColumns[i]; col != "id" && col != "created_at" {
			set[col] = val
		}
	}
	res, err := r.exec(ctx, psql.Update(studentsTable).SetMap(set).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return student.Student{}, studentUniqueErr(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return row.toStudent(), nil
}

func (r *studentRepository) CountByBranch(ctx context.Context) (map[string]int, error) {
	return r.countByBranch(ctx, studentsTable)
}

func studentUniqueErr(err error, msg string) error {
	constraint := uniqueConstraint(err)
	switch {
	case constraint == "":
		return errors.Wrap(err, msg)
	case strings.Contains(constraint, "roll_no"):
		return student.ErrRollNoExists
	default:
		return student.ErrEmailExists
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
