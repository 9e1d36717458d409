package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/ionode-cloud/ERP-Cell/core"
	"github.com/ionode-cloud/ERP-Cell/core/student"
)

type studentRepository struct {
	db *table[student.Student]
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) checkUniqueness(s student.Student) error {
	for _, row := range repo.db.t {
		if row.ID == s.ID {
			continue
		}
		if row.Email == s.Email {
			return student.ErrEmailExists
		}
		if row.RollNo == s.RollNo {
			return student.ErrRollNoExists
		}
	}
	return nil
}

func (repo *studentRepository) Create(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(s); err != nil {
		return student.Student{}, err
	}
	s.ID = newID()
	repo.db.t[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) Get(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.t[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) find(match func(s *student.Student) bool) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.t {
		if match(s) {
			return *s, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetByUserID(_ context.Context, userID string) (student.Student, error) {
	return repo.find(func(s *student.Student) bool { return s.UserID == userID })
}

func (repo *studentRepository) GetByRollNo(_ context.Context, rollNo string) (student.Student, error) {
	return repo.find(func(s *student.Student) bool { return s.RollNo == rollNo })
}

func (repo *studentRepository) Query(_ context.Context, filter student.QueryFilter, orderings []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]student.Student, 0)
	for _, s := range repo.db.rows() {
		if filter.Matches(s) {
			res = append(res, s)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareStudents(res[i], res[j], ord.Field)
			if c == 0 {
				continue
			}
			return (c < 0) == ord.Ascending
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (repo *studentRepository) Update(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	if err := repo.checkUniqueness(s); err != nil {
		return student.Student{}, err
	}
	repo.db.t[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) CountByBranch(_ context.Context) (map[string]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[string]int)
	for _, s := range repo.db.t {
		if s.IsActive {
			counts[s.BranchID]++
		}
	}
	return counts, nil
}

func compareStudents(a, b student.Student, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "rollNo":
		return strings.Compare(a.RollNo, b.RollNo)
	case "semester":
		return a.Semester - b.Semester
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}
