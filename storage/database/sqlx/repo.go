// Package sqlxrepos implements the repositories on PostgreSQL with sqlx and squirrel-built queries.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
)

// Tables
const (
	usersTable       = "users"
	branchesTable    = "branches"
	studentsTable    = "students"
	teachersTable    = "teachers"
	attendanceTable  = "attendance"
	marksTable       = "marks"
	feesTable        = "fees"
	feePaymentsTable = "fee_payments"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repo struct {
	db      *sqlx.DB
	timeout time.Duration
}

func newRepo(db *sqlx.DB, conf *core.Config) repo {
	return repo{db: db, timeout: conf.Database.QueryTimeout()}
}

func (r repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// get scans the single row selected by q into dst; notFound is returned when there is none.
func (r repo) get(ctx context.Context, q sq.Sqlizer, dst interface{}, notFound error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return trapNoRowsErr(r.db.GetContext(ctx, dst, query, args...), notFound, "getting row")
}

func (r repo) selectAll(ctx context.Context, q sq.Sqlizer, dst interface{}) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return errors.Wrap(r.db.SelectContext(ctx, dst, query, args...), "selecting rows")
}

func (r repo) exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return r.db.ExecContext(ctx, query, args...)
}

// countByBranch counts the active rows of table per branch_id.
func (r repo) countByBranch(ctx context.Context, table string) (map[string]int, error) {
	var rows []struct {
		BranchID string `db:"branch_id"`
		Count    int    `db:"count"`
	}
	q := psql.Select("branch_id", "COUNT(*) AS count").
		From(table).
		Where(sq.Eq{"is_active": true}).
		GroupBy("branch_id")
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "counting by branch")
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.BranchID] = row.Count
	}
	return counts, nil
}

// trapNoRowsErr maps the "no rows" error to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// uniqueConstraint returns the name of the unique constraint err violated, "" if err is not a violation.
func uniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

func newID() string {
	return uuid.New().String()
}

// validID reports whether id can be a primary key; other ids match no row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// orderBy maps orderings on known fields to ORDER BY clauses, id last as tie-breaker.
func orderBy(orderings []core.DBOrdering, columns map[string]string) []string {
	clauses := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	return append(clauses, "id ASC")
}

func columns(cols ...string) string {
	return strings.Join(cols, ", ")
}
