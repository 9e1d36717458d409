// Package inmemdb keeps every repository in process memory. Used by tests and the "memory" engine.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ionode-cloud/ERP-Cell/core/attendance"
	"github.com/ionode-cloud/ERP-Cell/core/branch"
	"github.com/ionode-cloud/ERP-Cell/core/fee"
	"github.com/ionode-cloud/ERP-Cell/core/mark"
	"github.com/ionode-cloud/ERP-Cell/core/student"
	"github.com/ionode-cloud/ERP-Cell/core/teacher"
	"github.com/ionode-cloud/ERP-Cell/core/user"
)

type (
	DB struct {
		user       *table[user.User]
		branch     *table[branch.Branch]
		student    *table[student.Student]
		teacher    *table[teacher.Teacher]
		attendance *table[attendance.Record]
		mark       *table[mark.Record]
		fee        *table[fee.Fee]
	}

	table[T any] struct {
		t     map[string]*T
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       newTable[user.User](),
		branch:     newTable[branch.Branch](),
		student:    newTable[student.Student](),
		teacher:    newTable[teacher.Teacher](),
		attendance: newTable[attendance.Record](),
		mark:       newTable[mark.Record](),
		fee:        newTable[fee.Fee](),
	}
}

func newTable[T any]() *table[T] {
	return &table[T]{t: make(map[string]*T)}
}

// rows returns copies of every row; callers must hold the lock.
func (tbl *table[T]) rows() []T {
	res := make([]T, 0, len(tbl.t))
	for _, row := range tbl.t {
		res = append(res, *row)
	}
	return res
}

func newID() string {
	return uuid.NewString()
}
