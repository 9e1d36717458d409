package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
)

var feeColumns = []string{
	"id", "student_id", "branch_id", "total_amount", "paid_amount", "due_amount", "academic_year", "created_at", "updated_at",
}

var paymentColumns = []string{"id", "fee_id", "amount", "date", "method", "transaction_id", "remarks", "position"}

type feeRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	BranchID     string    `db:"branch_id"`
	TotalAmount  float64   `db:"total_amount"`
	PaidAmount   float64   `db:"paid_amount"`
	DueAmount    float64   `db:"due_amount"`
	AcademicYear string    `db:"academic_year"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type paymentRow struct {
	ID            string    `db:"id"`
	FeeID         string    `db:"fee_id"`
	Amount        float64   `db:"amount"`
	Date          time.Time `db:"date"`
	Method        string    `db:"method"`
	TransactionID string    `db:"transaction_id"`
	Remarks       string    `db:"remarks"`
	Position      int       `db:"position"`
}

func (row paymentRow) toPayment() fee.Payment {
	return fee.Payment{
		ID:            row.ID,
		Amount:        row.Amount,
		Date:          row.Date.UTC(),
		Method:        row.Method,
		TransactionID: row.TransactionID,
		Remarks:       row.Remarks,
	}
}

// toFee attaches the payments and recomputes the amounts from them.
func (row feeRow) toFee(payments []paymentRow) fee.Fee {
	f := fee.Fee{
		ID:           row.ID,
		StudentID:    row.StudentID,
		BranchID:     row.BranchID,
		TotalAmount:  row.TotalAmount,
		Payments:     make([]fee.Payment, 0, len(payments)),
		AcademicYear: row.AcademicYear,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	for _, p := range payments {
		f.Payments = append(f.Payments, p.toPayment())
	}
	f.Recompute()
	return f
}

func insertPayment(feeID string, position int, p fee.Payment) sq.InsertBuilder {
	return psql.Insert(feePaymentsTable).
		Columns(paymentColumns...).
		Values(p.ID, feeID, p.Amount, p.Date.UTC(), p.Method, p.TransactionID, p.Remarks, position)
}

type feeRepository struct {
	repo
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *sqlx.DB, conf *core.Config) fee.Repository {
	return &feeRepository{repo: newRepo(db, conf)}
}

func (r *feeRepository) Create(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	f.ID = newID()
	for i := range f.Payments {
		if f.Payments[i].ID == "" {
			f.Payments[i].ID = newID()
		}
	}
	f.Recompute()

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		q := psql.Insert(feesTable).
			Columns(feeColumns...).
			Values(f.ID, f.StudentID, f.BranchID, f.TotalAmount, f.PaidAmount, f.DueAmount, f.AcademicYear,
				f.CreatedAt.UTC(), f.UpdatedAt.UTC())
		if err := txExec(ctx, tx, q); err != nil {
			if uniqueConstraint(err) != "" {
				return fee.ErrAccountExists
			}
			return errors.Wrap(err, "inserting fee")
		}
		for i, p := range f.Payments {
			if err := txExec(ctx, tx, insertPayment(f.ID, i, p)); err != nil {
				return errors.Wrap(err, "inserting payment")
			}
		}
		return nil
	})
	if err != nil {
		return fee.Fee{}, err
	}
	return f, nil
}

func (r *feeRepository) GetByStudent(ctx context.Context, studentID string) (fee.Fee, error) {
	var row feeRow
	q := psql.Select(feeColumns...).From(feesTable).Where(sq.Eq{"student_id": studentID})
	if err := r.get(ctx, q, &row, fee.ErrNotFound); err != nil {
		return fee.Fee{}, err
	}
	payments, err := r.payments(ctx, r.db, row.ID)
	if err != nil {
		return fee.Fee{}, err
	}
	return row.toFee(payments[row.ID]), nil
}

func (r *feeRepository) Query(ctx context.Context, filter fee.Filter) ([]fee.Fee, error) {
	q := psql.Select(feeColumns...).From(feesTable).OrderBy("created_at ASC", "id ASC")
	if filter.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": filter.BranchID})
	}
	if filter.StudentIDs != nil {
		q = q.Where(sq.Eq{"student_id": filter.StudentIDs})
	}

	var rows []feeRow
	if err := r.selectAll(ctx, q, &rows); err != nil {
		return nil, errors.Wrap(err, "querying fees")
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	payments, err := r.payments(ctx, r.db, ids...)
	if err != nil {
		return nil, err
	}

	fees := make([]fee.Fee, 0, len(rows))
	for _, row := range rows {
		fees = append(fees, row.toFee(payments[row.ID]))
	}
	return fees, nil
}

// AddPayment locks the ledger row, appends the payment and moves the stored amounts in one transaction.
func (r *feeRepository) AddPayment(ctx context.Context, feeID string, p fee.Payment) (fee.Fee, error) {
	if !validID(feeID) {
		return fee.Fee{}, fee.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p.ID = newID()
	var f fee.Fee
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var row feeRow
		query, args, err := psql.Select(feeColumns...).From(feesTable).Where(sq.Eq{"id": feeID}).Suffix("FOR UPDATE").ToSql()
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		if err = tx.GetContext(ctx, &row, query, args...); err != nil {
			return trapNoRowsErr(err, fee.ErrNotFound, "locking fee")
		}

		payments, err := r.payments(ctx, tx, feeID)
		if err != nil {
			return err
		}
		if err = txExec(ctx, tx, insertPayment(feeID, len(payments[feeID]), p)); err != nil {
			return errors.Wrap(err, "inserting payment")
		}
		upd := psql.Update(feesTable).
			Set("paid_amount", sq.Expr("paid_amount + ?", p.Amount)).
			Set("due_amount", sq.Expr("due_amount - ?", p.Amount)).
			Set("updated_at", p.Date.UTC()).
			Where(sq.Eq{"id": feeID})
		if err = txExec(ctx, tx, upd); err != nil {
			return errors.Wrap(err, "updating fee amounts")
		}

		row.UpdatedAt = p.Date
		f = row.toFee(append(payments[feeID], paymentRow{
			ID:            p.ID,
			FeeID:         feeID,
			Amount:        p.Amount,
			Date:          p.Date,
			Method:        p.Method,
			TransactionID: p.TransactionID,
			Remarks:       p.Remarks,
		}))
		return nil
	})
	if err != nil {
		return fee.Fee{}, err
	}
	return f, nil
}

// payments loads the payments of the given ledgers, keyed by fee ID, in payment order.
func (r *feeRepository) payments(ctx context.Context, db sqlx.QueryerContext, feeIDs ...string) (map[string][]paymentRow, error) {
	byFee := make(map[string][]paymentRow, len(feeIDs))
	if len(feeIDs) == 0 {
		return byFee, nil
	}
	query, args, err := psql.Select(paymentColumns...).
		From(feePaymentsTable).
		Where(sq.Eq{"fee_id": feeIDs}).
		OrderBy("fee_id", "position").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []paymentRow
	if err = sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting payments")
	}
	for _, row := range rows {
		byFee[row.FeeID] = append(byFee[row.FeeID], row)
	}
	return byFee, nil
}

func (r *feeRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func txExec(ctx context.Context, tx *sqlx.Tx, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
