package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
)

var branchColumns = []string{
	"id", "name", "code", "description", "duration", "total_seats",
	"total_fee", "tuition_fee", "exam_fee", "lab_fee", "other_fee",
	"subjects", "is_active", "created_at", "updated_at",
}

type branchRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Code        string         `db:"code"`
	Description string         `db:"description"`
	Duration    string         `db:"duration"`
	TotalSeats  int            `db:"total_seats"`
	TotalFee    float64        `db:"total_fee"`
	TuitionFee  float64        `db:"tuition_fee"`
	ExamFee     float64        `db:"exam_fee"`
	LabFee      float64        `db:"lab_fee"`
	OtherFee    float64        `db:"other_fee"`
	Subjects    pq.StringArray `db:"subjects"`
	IsActive    bool           `db:"is_active"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func newBranchRow(b branch.Branch) branchRow {
	subjects := pq.StringArray(b.Subjects)
	if subjects == nil {
		subjects = pq.StringArray{}
	}
	return branchRow{
		ID:          b.ID,
		Name:        b.Name,
		Code:        b.Code,
		Description: b.Description,
		Duration:    b.Duration,
		TotalSeats:  b.TotalSeats,
		TotalFee:    b.FeeStructure.TotalFee,
		TuitionFee:  b.FeeStructure.TuitionFee,
		ExamFee:     b.FeeStructure.ExamFee,
		LabFee:      b.FeeStructure.LabFee,
		OtherFee:    b.FeeStructure.OtherFee,
		Subjects:    subjects,
		IsActive:    b.IsActive,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func (row branchRow) values() []interface{} {
	return []interface{}{
		row.ID, row.Name, row.Code, row.Description, row.Duration, row.TotalSeats,
		row.TotalFee, row.TuitionFee, row.ExamFee, row.LabFee, row.OtherFee,
		row.Subjects, row.IsActive, row.CreatedAt, row.UpdatedAt,
	}
}

func (row branchRow) toBranch() branch.Branch {
	subjects := []string(row.Subjects)
	if subjects == nil {
		subjects = []string{}
	}
	return branch.Branch{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Description: row.Description,
		Duration:    row.Duration,
		TotalSeats:  row.TotalSeats,
		FeeStructure: branch.FeeStructure{
			TotalFee:   row.TotalFee,
			TuitionFee: row.TuitionFee,
			ExamFee:    row.ExamFee,
			LabFee:     row.LabFee,
			OtherFee:   row.OtherFee,
		},
		Subjects:  subjects,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type branchRepository struct {
	repo
}

var _ branch.Repository = (*branchRepository)(nil)

func NewBranchRepository(db *sqlx.DB, conf *core.Config) branch.Repository {
	return &branchRepository{repo: newRepo(db, conf)}
}

func (r *branchRepository) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	b.ID = newID()
	row := newBranchRow(b)
	q := psql.Insert(branchesTable).Columns(branchColumns...).Values(row.values()...)
	if _, err := r.exec(ctx, q); err != nil {
		if uniqueConstraint(err) != "" {
			return branch.Branch{}, branch.ErrCodeExists
		}
		return branch.Branch{}, errors.Wrap(err, "inserting branch")
	}
	return row.toBranch(), nil
}

func (r *branchRepository) Get(ctx context.Context, id string) (branch.Branch, error) {
	if !validID(id) {
		return branch.Branch{}, branch.ErrNotFound
	}
	return r.getWhere(ctx, sq.Eq{"id": id})
}

func (r *branchRepository) GetByCode(ctx context.Context, code string) (branch.Branch, error) {
	return r.getWhere(ctx, sq.Eq{"code": code})
}

func (r *branchRepository) getWhere(ctx context.Context, where sq.Eq) (branch.Branch, error) {
	var row branchRow
	q := psql.Select(branchColumns...).From(branchesTable).Where(where)
	if err := r.get(ctx, q, &row, branch.ErrNotFound); err != nil {
		return branch.Branch{}, err
	}
	return row.toBranch(), nil
}

func (r *branchRepository) Query(ctx context.Context, filter branch.QueryFilter) ([]branch.Branch, error) {
	q := psql.Select(branchColumns...).From(branchesTable).OrderBy("name ASC", "id ASC")
	if !filter.IncludeInactive {
		q = q.Where(sq.Eq{"is_active": true})
	}
	var rows []branchRow
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying branches")
	}
	branches := make([]branch.Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, row.toBranch())
	}
	return branches, nil
}

func (r *branchRepository) Update(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	if !validID(b.ID) {
		return branch.Branch{}, branch.ErrNotFound
	}
	row := newBranchRow(b)
	q := psql.Update(branchesTable).
		SetMap(map[string]interface{}{
			"name":        row.Name,
			"code":        row.Code,
			"description": row.Description,
			"duration":    row.Duration,
			"total_seats": row.TotalSeats,
			"total_fee":   row.TotalFee,
			"tuition_fee": row.TuitionFee,
			"exam_fee":    row.ExamFee,
			"lab_fee":     row.LabFee,
			"other_fee":   row.OtherFee,
			"subjects":    row.Subjects,
			"is_active":   row.IsActive,
			"updated_at":  row.UpdatedAt,
		}).
		Where(sq.Eq{"id": row.ID})

	res, err := r.exec(ctx, q)
	if err != nil {
		if uniqueConstraint(err) != "" {
			return branch.Branch{}, branch.ErrCodeExists
		}
		return branch.Branch{}, errors.Wrap(err, "updating branch")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return branch.Branch{}, branch.ErrNotFound
	}
	return row.toBranch(), nil
}
