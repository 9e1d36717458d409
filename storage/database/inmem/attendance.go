package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/attendance"
)

type attendanceRepository struct {
	db *table[attendance.Record]
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) Upsert(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.Date = core.Day(r.Date)
	for _, row := range repo.db.t {
		if row.StudentID == r.StudentID && row.Subject == r.Subject && row.Date.Equal(r.Date) {
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

func (repo *attendanceRepository) UpdateStatus(_ context.Context, sk attendance.SessionKey, studentID, status string, updatedAt time.Time) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, row := range repo.db.t {
		if row.StudentID == studentID && sk.Matches(*row) {
			row.Status = status
			row.UpdatedAt = updatedAt
			return *row, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) DeleteSession(_ context.Context, sk attendance.SessionKey) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for id, row := range repo.db.t {
		if sk.Matches(*row) {
			delete(repo.db.t, id)
			n++
		}
	}
	return n, nil
}

func (repo *attendanceRepository) list(match func(r attendance.Record) bool) []attendance.Record {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]attendance.Record, 0)
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
		return res[i].StudentID < res[j].StudentID
	})
	return res
}

func (repo *attendanceRepository) ListByStudent(_ context.Context, studentID string) ([]attendance.Record, error) {
	return repo.list(func(r attendance.Record) bool { return r.StudentID == studentID }), nil
}

func (repo *attendanceRepository) ListByBranch(_ context.Context, branchID string, filter attendance.RecordFilter) ([]attendance.Record, error) {
	return repo.list(func(r attendance.Record) bool { return r.BranchID == branchID && filter.Matches(r) }), nil
}

func (repo *attendanceRepository) TallyByBranch(_ context.Context) (map[string]attendance.Tally, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tallies := make(map[string]attendance.Tally)
	for _, r := range repo.db.t {
		t := tallies[r.BranchID]
		t.Total++
		if r.Status == attendance.StatusPresent {
			t.Present++
		}
		tallies[r.BranchID] = t
	}
	return tallies, nil
}
