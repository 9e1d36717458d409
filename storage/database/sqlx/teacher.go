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
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
)

var teacherColumns = []string{
	"id", "name", "email", "phone", "employee_id", "branch_id", "subjects", "qualification", "experience",
	"gender", "salary", "joining_date", "address", "user_id", "is_active", "created_at", "updated_at",
}

var teacherOrderColumns = map[string]string{
	"name":       "name",
	"employeeId": "employee_id",
	"createdAt":  "created_at",
}

type teacherRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Email         string         `db:"email"`
	Phone         string         `db:"phone"`
	EmployeeID    string         `db:"employee_id"`
	BranchID      string         `db:"branch_id"`
	Subjects      pq.StringArray `db:"subjects"`
	Qualification string         `db:"qualification"`
	Experience    string         `db:"experience"`
	Gender        string         `db:"gender"`
	Salary        float64        `db:"salary"`
	JoiningDate   null.Time      `db:"joining_date"`
	Address       string         `db:"address"`
	UserID        string         `db:"user_id"`
	IsActive      bool           `db:"is_active"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func newTeacherRow(t teacher.Teacher) teacherRow {
	subjects := pq.StringArray(t.Subjects)
	if subjects == nil {
		subjects = pq.StringArray{}
	}
	return teacherRow{
		ID:            t.ID,
		Name:          t.Name,
		Email:         t.Email,
		Phone:         t.Phone,
		EmployeeID:    t.EmployeeID,
		BranchID:      t.BranchID,
		Subjects:      subjects,
		Qualification: t.Qualification,
		Experience:    t.Experience,
		Gender:        t.Gender,
		Salary:        t.Salary,
		JoiningDate:   null.TimeFromPtr(t.JoiningDate),
		Address:       t.Address,
		UserID:        t.UserID,
		IsActive:      t.IsActive,
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
}

func (row teacherRow) values() []interface{} {
	return []interface{}{
		row.ID, row.Name, row.Email, row.Phone, row.EmployeeID, row.BranchID, row.Subjects, row.Qualification, row.Experience,
		row.Gender, row.Salary, row.JoiningDate, row.Address, row.UserID, row.IsActive, row.CreatedAt, row.UpdatedAt,
	}
}

func (row teacherRow) toTeacher() teacher.Teacher {
	t := teacher.Teacher{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Phone:         row.Phone,
		EmployeeID:    row.EmployeeID,
		BranchID:      row.BranchID,
		Subjects:      []string(row.Subjects),
		Qualification: row.Qualification,
		Experience:    row.Experience,
		Gender:        row.Gender,
		Salary:        row.Salary,
		Address:       row.Address,
		UserID:        row.UserID,
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if row.JoiningDate.Valid {
		jd := row.JoiningDate.Time.UTC()
		t.JoiningDate = &jd
	}
	if t.Subjects == nil {
		t.Subjects = []string{}
	}
	return t
}

type teacherRepository struct {
	repo
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *sqlx.DB, conf *core.Config) teacher.Repository {
	return &teacherRepository{repo: newRepo(db, conf)}
}

func (r *teacherRepository) Create(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	t.ID = newID()
	row := newTeacherRow(t)
	q := psql.Insert(teachersTable).Columns(teacherColumns...).Values(row.values()...)
	if _, err := r.exec(ctx, q); err != nil {
		return teacher.Teacher{}, teacherUniqueErr(err, "inserting teacher")
	}
	return row.toTeacher(), nil
}

func (r *teacherRepository) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	if !validID(id) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return r.getWhere(ctx, sq.Eq{"id": id})
}

func (r *teacherRepository) GetByUserID(ctx context.Context, userID string) (teacher.Teacher, error) {
	return r.getWhere(ctx, sq.Eq{"user_id": userID})
}

func (r *teacherRepository) getWhere(ctx context.Context, where sq.Eq) (teacher.Teacher, error) {
	var row teacherRow
	q := psql.Select(teacherColumns...).From(teachersTable).Where(where)
	if err := r.get(ctx, q, &row, teacher.ErrNotFound); err != nil {
		return teacher.Teacher{}, err
	}
	return row.toTeacher(), nil
}

func (r *teacherRepository) Query(ctx context.Context, filter teacher.QueryFilter, orderings []core.DBOrdering) ([]teacher.Teacher, error) {
	q := psql.Select(teacherColumns...).From(teachersTable).OrderBy(orderBy(orderings, teacherOrderColumns)...)
	if !filter.IncludeInactive {
		q = q.Where(sq.Eq{"is_active": true})
	}
	if filter.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": filter.BranchID})
	}
	if filter.Search != "" {
		q = q.Where(sq.ILike{"name": "%" + escapeLike(filter.Search) + "%"})
	}

	var rows []teacherRow
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.toTeacher())
	}
	return teachers, nil
}

func (r *teacherRepository) Update(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if !validID(t.ID) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	row := newTeacherRow(t)
	set := make(map[string]interface{}, len(teacherColumns))
	for i, val := range row.values() {
		if col := teacherColumns[i]; col != "id" && col != "created_at" {
			set[col] = val
		}
	}
	res, err := r.exec(ctx, psql.Update(teachersTable).SetMap(set).Where(sq.Eq{"id": row.ID}))
	if err != nil {
		return teacher.Teacher{}, teacherUniqueErr(err, "updating teacher")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return row.toTeacher(), nil
}

func (r *teacherRepository) CountByBranch(ctx context.Context) (map[string]int, error) {
	return r.countByBranch(ctx, teachersTable)
}

func teacherUniqueErr(err error, msg string) error {
	constraint := uniqueConstraint(err)
	switch {
	case constraint == "":
		return errors.Wrap(err, msg)
	case strings.Contains(constraint, "employee_id"):
		return teacher.ErrEmployeeIDExists
	default:
		return teacher.ErrEmailExists
	}
}
