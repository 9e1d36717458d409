package inmemdb

import (
	"context"
	"sort"

	"github.com/ionode-cloud/ERP-Cell/core/fee"
)

type feeRepository struct {
	db *table[fee.Fee]
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fee}
}

func (repo *feeRepository) Create(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, row := range repo.db.t {
		if row.StudentID == f.StudentID {
			return fee.Fee{}, fee.ErrAccountExists
		}
	}
	f.ID = newID()
	f.Payments = append([]fee.Payment{}, f.Payments...)
	for i := range f.Payments {
		if f.Payments[i].ID == "" {
			f.Payments[i].ID = newID()
		}
	}
	f.Recompute()
	repo.db.t[f.ID] = &f
	return copyFee(f), nil
}

func (repo *feeRepository) GetByStudent(_ context.Context, studentID string) (fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, f := range repo.db.t {
		if f.StudentID == studentID {
			return copyFee(*f), nil
		}
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) Query(_ context.Context, filter fee.Filter) ([]fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]fee.Fee, 0)
	for _, f := range repo.db.t {
		if filter.Matches(*f) {
			res = append(res, copyFee(*f))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (repo *feeRepository) AddPayment(_ context.Context, feeID string, p fee.Payment) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	f, ok := repo.db.t[feeID]
	if !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	p.ID = newID()
	f.Payments = append(f.Payments, p)
	f.UpdatedAt = p.Date
	f.Recompute()
	return copyFee(*f), nil
}

func copyFee(f fee.Fee) fee.Fee {
	f.Payments = append([]fee.Payment{}, f.Payments...)
	return f
}
