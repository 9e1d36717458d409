package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
)

type teacherRepository struct {
	db *table[teacher.Teacher]
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) checkUniqueness(t teacher.Teacher) error {
	for _, row := range repo.db.t {
		if row.ID == t.ID {
			continue
		}
		if row.Email == t.Email {
			return teacher.ErrEmailExists
		}
		if row.EmployeeID == t.EmployeeID {
			return teacher.ErrEmployeeIDExists
		}
	}
	return nil
}

func (repo *teacherRepository) Create(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(t); err != nil {
		return teacher.Teacher{}, err
	}
	t.ID = newID()
	repo.db.t[t.ID] = &t
	return t, nil
}

func (repo *teacherRepository) Get(_ context.Context, id string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.t[id]; ok {
		return *t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetByUserID(_ context.Context, userID string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.t {
		if t.UserID == userID {
			return *t, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) Query(_ context.Context, filter teacher.QueryFilter, orderings []core.DBOrdering) ([]teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]teacher.Teacher, 0)
	for _, t := range repo.db.rows() {
		if filter.Matches(t) {
			res = append(res, t)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		for _, ord := range orderings {
			var c int
			switch ord.Field {
			case "name":
				c = strings.Compare(res[i].Name, res[j].Name)
			case "employeeId":
				c = strings.Compare(res[i].EmployeeID, res[j].EmployeeID)
			case "createdAt":
				c = res[i].CreatedAt.Compare(res[j].CreatedAt)
			}
			if c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (repo *teacherRepository) Update(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[t.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	if err := repo.checkUniqueness(t); err != nil {
		return teacher.Teacher{}, err
	}
	repo.db.t[t.ID] = &t
	return t, nil
}

func (repo *teacherRepository) CountByBranch(_ context.Context) (map[string]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[string]int)
	for _, t := range repo.db.t {
		if t.IsActive {
			counts[t.BranchID]++
		}
	}
	return counts, nil
}
