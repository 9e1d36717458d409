package inmemdb

import (
	"context"
	"sort"

	"github.com/ionode-cloud/ERP-Cell/core/branch"
)

type branchRepository struct {
	db *table[branch.Branch]
}

var _ branch.Repository = (*branchRepository)(nil)

func NewBranchRepository(db *DB) branch.Repository {
	return &branchRepository{db: db.branch}
}

func (repo *branchRepository) Create(_ context.Context, b branch.Branch) (branch.Branch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, row := range repo.db.t {
		if row.Code == b.Code {
			return branch.Branch{}, branch.ErrCodeExists
		}
	}
	b.ID = newID()
	repo.db.t[b.ID] = &b
	return b, nil
}

func (repo *branchRepository) Get(_ context.Context, id string) (branch.Branch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if b, ok := repo.db.t[id]; ok {
		return *b, nil
	}
	return branch.Branch{}, branch.ErrNotFound
}

func (repo *branchRepository) GetByCode(_ context.Context, code string) (branch.Branch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, b := range repo.db.t {
		if b.Code == code {
			return *b, nil
		}
	}
	return branch.Branch{}, branch.ErrNotFound
}

func (repo *branchRepository) Query(_ context.Context, filter branch.QueryFilter) ([]branch.Branch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]branch.Branch, 0, len(repo.db.t))
	for _, b := range repo.db.rows() {
		if b.IsActive || filter.IncludeInactive {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (repo *branchRepository) Update(_ context.Context, b branch.Branch) (branch.Branch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[b.ID]; !ok {
		return branch.Branch{}, branch.ErrNotFound
	}
	for _, row := range repo.db.t {
		if row.ID != b.ID && row.Code == b.Code {
			return branch.Branch{}, branch.ErrCodeExists
		}
	}
	repo.db.t[b.ID] = &b
	return b, nil
}
