package inmemdb

import (
	"context"
	"sort"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
)

type markRepository struct {
	db *table[mark.Record]
}

var _ mark.Repository = (*markRepository)(nil)

func NewMarkRepository(db *DB) mark.Repository {
	return &markRepository{db: db.mark}
}

func (repo *markRepository) Upsert(_ context.Context, r mark.Record) (mark.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.Date = core.Day(r.Date)
	for _, row := range repo.db.t {
		if row.StudentID == r.StudentID && row.Subject == r.Subject && row.ExamType == r.ExamType && row.Date.Equal(r.Date) {
			r.ID = row.ID
			r.CreatedAt = row.CreatedAt
			*row = r
			return r, nil
		}
	}
	r.ID = newID()
	repo.db.t[r.ID] = &r
	return r, nil
}

func (repo *markRepository) list(match func(r mark.Record) bool) []mark.Record {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]mark.Record, 0)
	for _, r := range repo.db.rows() {
		if match(r) {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		if res[i].Subject != res[j].Subject {
			return res[i].Subject < res[j].Subject
		}
		if res[i].ExamType != res[j].ExamType {
			return res[i].ExamType < res[j].ExamType
		}
		return res[i].StudentID < res[j].StudentID
	})
	return res
}

func (repo *markRepository) ListByStudent(_ context.Context, studentID string) ([]mark.Record, error) {
	return repo.list(func(r mark.Record) bool { return r.StudentID == studentID }), nil
}

func (repo *markRepository) ListByBranch(_ context.Context, branchID string, filter mark.Filter) ([]mark.Record, error) {
	return repo.list(func(r mark.Record) bool { return r.BranchID == branchID && filter.Matches(r) }), nil
}
